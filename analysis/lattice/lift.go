package lattice

// Lifted is an element of a bottom-lifted lattice: either the synthetic ⊥
// standing for unreachable code, or a reachable base element.
type Lifted[E any] struct {
	ok bool
	v  E
}

// Reachable wraps a base element.
func Reachable[E any](v E) Lifted[E] {
	return Lifted[E]{true, v}
}

// Unreachable is the synthetic ⊥.
func Unreachable[E any]() Lifted[E] {
	return Lifted[E]{}
}

// Get returns the base element, if reachable.
func (e Lifted[E]) Get() (E, bool) {
	return e.v, e.ok
}

// IsUnreachable checks whether e is the synthetic ⊥.
func (e Lifted[E]) IsUnreachable() bool {
	return !e.ok
}

// LiftLattice is a lattice obtained by applying the Lift combinator, 𝓛, to
// another lattice.
type LiftLattice[E any] struct {
	Base Lattice[E]
}

// Lift is a lattice combinator, 𝓛, for lifting any lattice L by introducing
// an additional ⊥ element such that ⊥ ⊑ x, ∀ x ∈ 𝓛(L).
func Lift[E any](base Lattice[E]) LiftLattice[E] {
	return LiftLattice[E]{base}
}

func (l LiftLattice[E]) Bot() Lifted[E] {
	return Unreachable[E]()
}

// Top is the lifted ⊤ of the base lattice. Panics if the base has none.
func (l LiftLattice[E]) Top() Lifted[E] {
	top, err := TopOf(l.Base)
	if err != nil {
		panic(err)
	}
	return Reachable(top)
}

func (l LiftLattice[E]) Leq(a, b Lifted[E]) bool {
	switch {
	case !a.ok:
		return true
	case !b.ok:
		return false
	}
	return l.Base.Leq(a.v, b.v)
}

func (l LiftLattice[E]) Eq(a, b Lifted[E]) bool {
	if !a.ok || !b.ok {
		return a.ok == b.ok
	}
	return l.Base.Eq(a.v, b.v)
}

func (l LiftLattice[E]) Join(a, b Lifted[E]) Lifted[E] {
	switch {
	case !a.ok:
		return b
	case !b.ok:
		return a
	}
	return Reachable(l.Base.Join(a.v, b.v))
}

func (l LiftLattice[E]) Widen(prev, next Lifted[E], iters int) Lifted[E] {
	switch {
	case !prev.ok:
		return next
	case !next.ok:
		return prev
	}
	return Reachable(l.Base.Widen(prev.v, next.v, iters))
}

func (l LiftLattice[E]) Show(e Lifted[E]) string {
	if !e.ok {
		return colorize.Element("⊥")
	}
	return l.Base.Show(e.v)
}

func (l LiftLattice[E]) String() string {
	return colorize.LatticeCon("𝓛") + "(" + l.Base.String() + ")"
}
