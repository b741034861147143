package absint

import (
	"slices"

	"github.com/cs-au-dk/fixpoint/analysis/cfg"
	L "github.com/cs-au-dk/fixpoint/analysis/lattice"
	i "github.com/cs-au-dk/fixpoint/utils/indenter"
)

// Invariant is the abstract state computed for a node.
type Invariant[E any] struct {
	Pre, Post E
	// Visits counts the updates of Post.
	Visits int
}

// InvariantMap maps nodes to their invariants. It is owned by the run that
// produced it and is read-only afterwards.
type InvariantMap[E any] struct {
	lat   L.Lattice[E]
	inv   map[cfg.Node]*Invariant[E]
	exit  cfg.Node
	steps int
}

func newInvariantMap[E any](lat L.Lattice[E], exit cfg.Node) *InvariantMap[E] {
	return &InvariantMap[E]{
		lat:  lat,
		inv:  make(map[cfg.Node]*Invariant[E]),
		exit: exit,
	}
}

// Get retrieves the invariant of n. Nodes that were never reached, or whose
// invariant was discarded by the retention policy, have none.
func (m *InvariantMap[E]) Get(n cfg.Node) (Invariant[E], bool) {
	if inv, found := m.inv[n]; found {
		return *inv, true
	}
	return Invariant[E]{}, false
}

// Pre retrieves the state before n.
func (m *InvariantMap[E]) Pre(n cfg.Node) (E, bool) {
	inv, found := m.Get(n)
	return inv.Pre, found
}

// Post retrieves the state after n.
func (m *InvariantMap[E]) Post(n cfg.Node) (E, bool) {
	inv, found := m.Get(n)
	return inv.Post, found
}

// ExitState is the post-state of the exit node, or false if the exit node is
// unreachable.
func (m *InvariantMap[E]) ExitState() (E, bool) {
	return m.Post(m.exit)
}

// Nodes lists the nodes with an invariant in ascending order.
func (m *InvariantMap[E]) Nodes() []cfg.Node {
	res := make([]cfg.Node, 0, len(m.inv))
	for n := range m.inv {
		res = append(res, n)
	}
	slices.SortFunc(res, func(a, b cfg.Node) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return res
}

// Size is the number of nodes with an invariant.
func (m *InvariantMap[E]) Size() int {
	return len(m.inv)
}

// Steps is the number of node visits the run performed.
func (m *InvariantMap[E]) Steps() int {
	return m.steps
}

// Lattice returns the lattice the invariants belong to.
func (m *InvariantMap[E]) Lattice() L.Lattice[E] {
	return m.lat
}

// Equal compares two maps node by node.
func (m *InvariantMap[E]) Equal(o *InvariantMap[E]) bool {
	if len(m.inv) != len(o.inv) {
		return false
	}
	for n, a := range m.inv {
		b, found := o.inv[n]
		if !found || a.Visits != b.Visits ||
			!m.lat.Eq(a.Pre, b.Pre) || !m.lat.Eq(a.Post, b.Post) {
			return false
		}
	}
	return true
}

func (m *InvariantMap[E]) String() string {
	nodes := m.Nodes()
	entries := make([]func() string, len(nodes))
	for idx, n := range nodes {
		n := n
		inv := m.inv[n]
		entries[idx] = func() string {
			return i.Indenter().Start(n.String()+" {").NestStrings(
				"pre:  "+m.lat.Show(inv.Pre),
				"post: "+m.lat.Show(inv.Post),
			).End("}")
		}
	}
	return i.Indenter().Start("Invariants:").NestThunked(entries...).End("")
}
