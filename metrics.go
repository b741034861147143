package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"golang.org/x/tools/go/ssa"

	"github.com/cs-au-dk/fixpoint/analysis"
	"github.com/cs-au-dk/fixpoint/analysis/batch"
	"github.com/cs-au-dk/fixpoint/analysis/clients/paramflow"
	"github.com/cs-au-dk/fixpoint/analysis/summary"
	"github.com/cs-au-dk/fixpoint/utils"
	"github.com/cs-au-dk/fixpoint/utils/graph"
)

// top is the number of procedures listed per ranking in the metrics.
const top = 5

type paramFlowAnalyzer = summary.Analyzer[*ssa.Function, ssa.Instruction, paramflow.State, paramflow.Summary]

// gatherMetrics prints the work done by the analyzer in verbose mode.
func gatherMetrics(a *paramFlowAnalyzer, results []batch.Result[*ssa.Function], calls graph.Graph[*ssa.Function]) {
	if !opts.Verbose() || len(results) == 0 {
		return
	}

	summaries, absent := a.Cache().Snapshot()

	msg := "\n================ Metrics =====================\n\n"
	msg += fmt.Sprintf("Solver runs: %d\n", a.Runs())
	msg += fmt.Sprintf("Recursive summary reads: %d\n", a.Recursions())
	msg += fmt.Sprintf("Cached summaries: %d\n", summaries.Len())
	msg += fmt.Sprintf("Procedures without summary: %d\n", absent.Len())

	reasons := make(map[summary.Reason]int)
	for it := absent.Iterator(); !it.Done(); {
		_, abs, _ := it.Next()
		reasons[abs.Reason]++
	}
	if len(reasons) > 0 {
		keys := make([]string, 0, len(reasons))
		for r := range reasons {
			keys = append(keys, string(r))
		}
		sort.Strings(keys)

		msg += "Missing summaries by reason {\n"
		for _, r := range keys {
			msg += fmt.Sprintf("  %s -- %d\n", r, reasons[summary.Reason(r)])
		}
		msg += "}\n"
	}

	sorted := append([]batch.Result[*ssa.Function](nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Duration > sorted[j].Duration
	})
	msg += "Slowest procedures {\n"
	for _, r := range sorted[:min(top, len(sorted))] {
		msg += fmt.Sprintf("  %s -- %s\n", paramflow.Key(r.Proc), r.Duration)
	}
	msg += "}\n"

	roots := make([]*ssa.Function, len(results))
	for i, r := range results {
		roots[i] = r.Proc
	}
	reach := analysis.Reach(calls, roots, utils.PointerHasher[*ssa.Function]{})
	sort.SliceStable(roots, func(i, j int) bool {
		return reach[roots[i]].Size() > reach[roots[j]].Size()
	})
	msg += "Largest call trees {\n"
	for _, fn := range roots[:min(top, len(roots))] {
		msg += fmt.Sprintf("  %s -- %d functions\n", paramflow.Key(fn), reach[fn].Size())
	}
	msg += "}\n"

	fmt.Print(utils.CanColorize(color.New(color.FgCyan).SprintFunc())(msg))
}
