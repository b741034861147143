// Package batch analyzes many procedures in parallel on top of a shared
// summary cache.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/cs-au-dk/fixpoint/analysis/summary"
)

// Status is the outcome of analyzing one procedure.
type Status int

const (
	// Computed procedures have a summary.
	Computed Status = iota
	// Skipped procedures have no summary for a reason outside the analysis,
	// e.g. a timeout or a missing body.
	Skipped
	// Failed procedures crashed the analysis or the solver gave up.
	Failed
)

func (s Status) String() string {
	switch s {
	case Computed:
		return "computed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result records the analysis of a top-level procedure.
type Result[K comparable] struct {
	Proc     K
	Status   Status
	Reason   summary.Reason
	Err      error
	Duration time.Duration
}

func statusOf(r summary.Reason) Status {
	switch r {
	case summary.ReasonPanic, summary.ReasonFailed:
		return Failed
	}
	return Skipped
}

// Driver runs an analyzer over many procedures.
type Driver[K comparable, I, E, S any] struct {
	analyzer *summary.Analyzer[K, I, E, S]
	config   Config
	name     func(K) string
	flights  singleflight.Group
	logger   *log.Logger
}

// NewDriver creates a driver. name must be injective on the analyzed
// procedures; it identifies procedures in reports and deduplicates
// concurrent requests.
func NewDriver[K comparable, I, E, S any](
	a *summary.Analyzer[K, I, E, S],
	config Config,
	name func(K) string,
) (*Driver[K, I, E, S], error) {
	if err := config.compile(); err != nil {
		return nil, err
	}
	return &Driver[K, I, E, S]{
		analyzer: a,
		config:   config,
		name:     name,
	}, nil
}

// SetLogger directs a line per analyzed procedure to l.
func (d *Driver[K, I, E, S]) SetLogger(l *log.Logger) {
	d.logger = l
}

func (d *Driver[K, I, E, S]) Analyzer() *summary.Analyzer[K, I, E, S] {
	return d.analyzer
}

// Analyze computes the summary of k under the per-procedure timeout.
// Concurrent calls for the same procedure share one computation.
func (d *Driver[K, I, E, S]) Analyze(ctx context.Context, k K) Result[K] {
	v, _, _ := d.flights.Do(d.name(k), func() (any, error) {
		return d.analyze(ctx, k), nil
	})
	res := v.(Result[K])
	res.Proc = k
	return res
}

func (d *Driver[K, I, E, S]) analyze(ctx context.Context, k K) (res Result[K]) {
	start := time.Now()
	res.Proc = k

	defer func() {
		if r := recover(); r != nil {
			res.Status, res.Reason = Failed, summary.ReasonPanic
			res.Err = summary.PanicError{Value: r, Stack: debug.Stack()}
			d.analyzer.Cache().MarkAbsent(k, summary.Absence{Reason: res.Reason, Err: res.Err})
		}
		res.Duration = time.Since(start)
		if d.logger != nil {
			d.logger.Printf("%s: %s in %s", d.name(k), res.Status, res.Duration)
		}
	}()

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	_, err := d.analyzer.Summary(ctx, nil, k)
	if err == nil {
		res.Status = Computed
		return
	}

	res.Err = err
	if r, ok := summary.ReasonOf(err); ok {
		res.Reason = r
		res.Status = statusOf(r)
	} else {
		res.Reason, res.Status = summary.ReasonFailed, Failed
	}
	return
}

// Run analyzes every selected procedure of the clusters. Clusters are
// processed in parallel by at most Config.Workers workers (GOMAXPROCS when
// unset); the procedures of
// a cluster are analyzed in order by one worker.
//
// The results follow the order of the clusters. An error is only returned
// if ctx is done before all procedures were analyzed.
func (d *Driver[K, I, E, S]) Run(ctx context.Context, clusters [][]K) ([]Result[K], error) {
	var (
		results = make([][]Result[K], len(clusters))
		g       errgroup.Group
	)
	if d.config.Workers > 0 {
		g.SetLimit(d.config.Workers)
	} else {
		g.SetLimit(runtime.GOMAXPROCS(0))
	}

	for i, cluster := range clusters {
		i, cluster := i, cluster
		g.Go(func() error {
			for _, k := range cluster {
				if err := ctx.Err(); err != nil {
					return err
				}
				if !d.config.Selects(d.name(k)) {
					continue
				}
				results[i] = append(results[i], d.Analyze(ctx, k))
			}
			return nil
		})
	}

	err := g.Wait()

	var res []Result[K]
	for _, rs := range results {
		res = append(res, rs...)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return res, fmt.Errorf("batch interrupted after %d procedures: %w", len(res), err)
	}
	return res, err
}
