package batch

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/cs-au-dk/fixpoint/utils"
)

var statusColor = map[Status]func(...interface{}) string{
	Computed: color.New(color.FgGreen).SprintFunc(),
	Skipped:  color.New(color.FgYellow).SprintFunc(),
	Failed:   color.New(color.FgRed, color.Bold).SprintFunc(),
}

// Stats counts results per status.
type Stats struct {
	Computed, Skipped, Failed int
	Total                     time.Duration
}

// Summarize counts the results.
func Summarize[K comparable](results []Result[K]) (s Stats) {
	for _, r := range results {
		switch r.Status {
		case Computed:
			s.Computed++
		case Skipped:
			s.Skipped++
		case Failed:
			s.Failed++
		}
		s.Total += r.Duration
	}
	return
}

func (s Stats) String() string {
	return fmt.Sprintf("%d computed, %d skipped, %d failed",
		s.Computed, s.Skipped, s.Failed)
}

// Report writes one line per result followed by the totals. Durations are
// omitted unless timed is set, so that reports of equal runs are equal.
func Report[K comparable](w io.Writer, results []Result[K], name func(K) string, timed bool) error {
	for _, r := range results {
		line := fmt.Sprintf("%-10s %s", utils.CanColorize(statusColor[r.Status])(r.Status), name(r.Proc))
		if r.Reason != "" {
			line += fmt.Sprintf(" (%s)", r.Reason)
		}
		if timed {
			line += fmt.Sprintf(" [%s]", r.Duration.Round(time.Microsecond))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, Summarize(results))
	return err
}
