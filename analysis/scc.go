// Package analysis holds analyses over whole call graphs that do not need a
// fixpoint solver run per procedure.
package analysis

import (
	"github.com/benbjohnson/immutable"

	L "github.com/cs-au-dk/fixpoint/analysis/lattice"
	"github.com/cs-au-dk/fixpoint/utils/graph"
)

// SCCAnalysis computes a fact per component of scc, bottom up. The fact of a
// component joins the facts generated for its members with the facts of the
// components it has edges to. Components are acyclic, so one pass suffices.
func SCCAnalysis[Fact any, T comparable](
	scc graph.SCCDecomposition[T],
	lat L.Lattice[Fact],
	generateFact func(T) Fact,
) []Fact {
	facts := make([]Fact, len(scc.Components))
	conv := scc.ToGraph()
	for ci, comp := range scc.Components {
		fact := lat.Bot()
		for _, node := range comp {
			fact = lat.Join(fact, generateFact(node))
		}
		for _, cj := range conv.Edges(ci) {
			fact = lat.Join(fact, facts[cj])
		}
		facts[ci] = fact
	}
	return facts
}

// Reach computes, for every node reachable from roots in g, the set of nodes
// it reaches, itself included.
func Reach[T comparable](g graph.Graph[T], roots []T, hasher immutable.Hasher[T]) map[T]L.Set[T] {
	nodes := L.InfinitePowerset(hasher, "Nodes")
	scc := g.SCC(roots)
	facts := SCCAnalysis[L.Set[T]](scc, nodes, func(n T) L.Set[T] {
		return nodes.Make(n)
	})

	res := make(map[T]L.Set[T])
	for ci, comp := range scc.Components {
		for _, n := range comp {
			res[n] = facts[ci]
		}
	}
	return res
}
