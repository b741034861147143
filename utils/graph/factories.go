package graph

import (
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/ssa"
)

// CGPruneLimit is the number of targets from which a call site is considered
// too imprecise to contribute edges.
const CGPruneLimit = 10

// Creates a Graph from a callgraph with *ssa.Functions as nodes.
// Duplicate edges in the callgraph are pruned.
// If prune is true edges from call sites with at least CGPruneLimit targets
// will not be included in the resulting graph.
func FromCallGraph(cg *callgraph.Graph, prune bool) Graph[*ssa.Function] {
	return OfHashable(func(fun *ssa.Function) (ret []*ssa.Function) {
		node, found := cg.Nodes[fun]
		if !found {
			return
		}

		siteCnt := map[ssa.CallInstruction]int{}
		for _, edge := range node.Out {
			siteCnt[edge.Site]++
		}

		dedup := map[*ssa.Function]bool{}
		for _, edge := range node.Out {
			if seen := dedup[edge.Callee.Func]; !seen &&
				(!prune || siteCnt[edge.Site] < CGPruneLimit) {
				dedup[edge.Callee.Func] = true
				ret = append(ret, edge.Callee.Func)
			}
		}
		return
	})
}
