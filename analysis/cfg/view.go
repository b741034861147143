package cfg

import (
	"go/token"
	"slices"

	"github.com/cs-au-dk/fixpoint/utils/graph"
)

// View is the interface the solver traverses. Nodes are opaque identities;
// instructions of a node are listed in execution order of the view.
type View[I any] interface {
	Nodes() []Node
	Start() Node
	Exit() Node
	Succs(n Node) []Node
	Preds(n Node) []Node
	ExnSuccs(n Node) []Node
	ExnPreds(n Node) []Node
	Instrs(n Node) []I
	Kind(n Node) Kind
	Pos(n Node) token.Pos
}

// Retainer is implemented by views that decide which node invariants are
// worth keeping once a fixpoint is reached.
type Retainer interface {
	Retain(n Node) bool
}

// Retains consults the retention policy of v, if any.
func Retains[I any](v View[I], n Node) bool {
	if r, ok := v.(Retainer); ok {
		return r.Retain(n)
	}
	return true
}

// Successors lists the successors of n, including exceptional ones if
// requested.
func Successors[I any](v View[I], n Node, exceptional bool) []Node {
	if !exceptional {
		return v.Succs(n)
	}
	return concat(v.Succs(n), v.ExnSuccs(n))
}

// Predecessors lists the predecessors of n, including exceptional ones if
// requested.
func Predecessors[I any](v View[I], n Node, exceptional bool) []Node {
	if !exceptional {
		return v.Preds(n)
	}
	return concat(v.Preds(n), v.ExnPreds(n))
}

func concat(a, b []Node) []Node {
	switch {
	case len(b) == 0:
		return a
	case len(a) == 0:
		return b
	}
	return append(slices.Clip(a), b...)
}

// AsGraph exposes the successor relation of a view to the graph algorithms.
func AsGraph[I any](v View[I], exceptional bool) graph.Graph[Node] {
	return graph.OfHashable(func(n Node) []Node {
		return Successors(v, n, exceptional)
	})
}

// Reachable lists the nodes reachable from the start node.
func Reachable[I any](v View[I], exceptional bool) []Node {
	return AsGraph(v, exceptional).Reachable(v.Start())
}

// ==[ Normal ]==================================================================

type normal[I any] struct {
	View[I]
}

// Normal hides the exceptional edges of v.
func Normal[I any](v View[I]) View[I] {
	if _, ok := v.(normal[I]); ok {
		return v
	}
	return normal[I]{v}
}

func (normal[I]) ExnSuccs(Node) []Node { return nil }
func (normal[I]) ExnPreds(Node) []Node { return nil }

func (v normal[I]) Retain(n Node) bool {
	return Retains(v.View, n)
}

// ==[ Backward ]================================================================

type backward[I any] struct {
	v View[I]
}

// Backward reverses v: successors are the predecessors of v, the start node is
// the exit of v, and instructions of a node are listed last to first. Nothing
// is copied except instruction lists of multi-instruction nodes.
// Backward(Backward(v)) is v.
func Backward[I any](v View[I]) View[I] {
	if b, ok := v.(backward[I]); ok {
		return b.v
	}
	return backward[I]{v}
}

func (b backward[I]) Nodes() []Node          { return b.v.Nodes() }
func (b backward[I]) Start() Node            { return b.v.Exit() }
func (b backward[I]) Exit() Node             { return b.v.Start() }
func (b backward[I]) Succs(n Node) []Node    { return b.v.Preds(n) }
func (b backward[I]) Preds(n Node) []Node    { return b.v.Succs(n) }
func (b backward[I]) ExnSuccs(n Node) []Node { return b.v.ExnPreds(n) }
func (b backward[I]) ExnPreds(n Node) []Node { return b.v.ExnSuccs(n) }
func (b backward[I]) Kind(n Node) Kind       { return b.v.Kind(n) }
func (b backward[I]) Pos(n Node) token.Pos   { return b.v.Pos(n) }
func (b backward[I]) Retain(n Node) bool     { return Retains(b.v, n) }

func (b backward[I]) Instrs(n Node) []I {
	instrs := b.v.Instrs(n)
	if len(instrs) < 2 {
		return instrs
	}
	rev := slices.Clone(instrs)
	slices.Reverse(rev)
	return rev
}
