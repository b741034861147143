package lattice

// Dropped is an element of a top-lifted lattice: either the synthetic ⊤ or a
// base element.
type Dropped[E any] struct {
	top bool
	v   E
}

// Known wraps a base element.
func Known[E any](v E) Dropped[E] {
	return Dropped[E]{false, v}
}

// Unknown is the synthetic ⊤.
func Unknown[E any]() Dropped[E] {
	return Dropped[E]{top: true}
}

// Get returns the base element unless e is ⊤.
func (e Dropped[E]) Get() (E, bool) {
	return e.v, !e.top
}

func (e Dropped[E]) IsTop() bool {
	return e.top
}

// DropLattice is a lattice obtained by applying the Drop combinator, 𝓓, to
// another lattice.
type DropLattice[E any] struct {
	Base Lattice[E]
}

// Drop is a lattice combinator, 𝓓, for extending any lattice L with an
// additional ⊤ element such that x ⊑ ⊤, ∀ x ∈ 𝓓(L).
func Drop[E any](base Lattice[E]) DropLattice[E] {
	return DropLattice[E]{base}
}

func (l DropLattice[E]) Bot() Dropped[E] {
	return Known(l.Base.Bot())
}

func (l DropLattice[E]) Top() Dropped[E] {
	return Unknown[E]()
}

func (l DropLattice[E]) Leq(a, b Dropped[E]) bool {
	switch {
	case b.top:
		return true
	case a.top:
		return false
	}
	return l.Base.Leq(a.v, b.v)
}

func (l DropLattice[E]) Eq(a, b Dropped[E]) bool {
	if a.top || b.top {
		return a.top == b.top
	}
	return l.Base.Eq(a.v, b.v)
}

func (l DropLattice[E]) Join(a, b Dropped[E]) Dropped[E] {
	if a.top || b.top {
		return Unknown[E]()
	}
	return Known(l.Base.Join(a.v, b.v))
}

func (l DropLattice[E]) Widen(prev, next Dropped[E], iters int) Dropped[E] {
	if prev.top || next.top {
		return Unknown[E]()
	}
	return Known(l.Base.Widen(prev.v, next.v, iters))
}

func (l DropLattice[E]) Show(e Dropped[E]) string {
	if e.top {
		return colorize.Element("⊤")
	}
	return l.Base.Show(e.v)
}

func (l DropLattice[E]) String() string {
	return colorize.LatticeCon("𝓓") + "(" + l.Base.String() + ")"
}
