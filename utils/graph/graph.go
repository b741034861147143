package graph

/*
	This package exposes utilities for working with graph structures.

	Graphs show up in several places in the engine: control flow graphs of
	procedures, call graphs driving batch analysis, and the component graphs
	derived from either. Instead of ad-hoc traversals in each place, the caller
	describes the edge relation as a function and gets the standard algorithms
	for free.
*/

type edgesOf[T any] func(node T) []T

// Graph is a lazily explored graph with nodes of type T. Edge lists are
// cached on first access, so a Graph must not be shared between goroutines.
type Graph[T comparable] struct {
	edgesOf     edgesOf[T]
	cachedEdges map[T][]T
}

func (G Graph[T]) Edges(node T) []T {
	if cached, found := G.cachedEdges[node]; found {
		return cached
	}

	es := G.edgesOf(node)
	G.cachedEdges[node] = es
	return es
}

// OfHashable creates a graph from the given edge relation.
func OfHashable[T comparable](edgesOf edgesOf[T]) Graph[T] {
	return Graph[T]{
		edgesOf,
		make(map[T][]T),
	}
}

// Reverse computes the reversed edge relation of the subgraph reachable from
// the given start nodes.
func (G Graph[T]) Reverse(starts ...T) Graph[T] {
	rev := make(map[T][]T)
	G.BFSV(func(node T) bool {
		for _, e := range G.Edges(node) {
			rev[e] = append(rev[e], node)
		}
		return false
	}, starts...)

	return OfHashable(func(node T) []T { return rev[node] })
}
