package lattice

import "fmt"

type flatKind uint8

const (
	flatBot flatKind = iota
	flatConst
	flatTop
)

// FlatElement is ⊥, ⊤ or a single constant.
type FlatElement[T comparable] struct {
	kind flatKind
	v    T
}

// Const wraps a constant.
func Const[T comparable](v T) FlatElement[T] {
	return FlatElement[T]{flatConst, v}
}

// Value returns the constant, if e is one.
func (e FlatElement[T]) Value() (T, bool) {
	return e.v, e.kind == flatConst
}

func (e FlatElement[T]) IsBot() bool { return e.kind == flatBot }
func (e FlatElement[T]) IsTop() bool { return e.kind == flatTop }

// FlatLattice has ⊥ below every constant, ⊤ above every constant, and no
// order between distinct constants.
type FlatLattice[T comparable] struct {
	name string
}

// Flat constructs the flat lattice over T.
func Flat[T comparable](name string) FlatLattice[T] {
	return FlatLattice[T]{name}
}

func (FlatLattice[T]) Bot() FlatElement[T] {
	return FlatElement[T]{kind: flatBot}
}

func (FlatLattice[T]) Top() FlatElement[T] {
	return FlatElement[T]{kind: flatTop}
}

func (FlatLattice[T]) Leq(a, b FlatElement[T]) bool {
	return a.kind == flatBot || b.kind == flatTop || a == b
}

func (FlatLattice[T]) Eq(a, b FlatElement[T]) bool {
	return a == b
}

func (l FlatLattice[T]) Join(a, b FlatElement[T]) FlatElement[T] {
	switch {
	case a.kind == flatBot:
		return b
	case b.kind == flatBot:
		return a
	case a == b:
		return a
	}
	return l.Top()
}

// Widen is join, since the lattice has height 2.
func (l FlatLattice[T]) Widen(prev, next FlatElement[T], _ int) FlatElement[T] {
	return l.Join(prev, next)
}

func (FlatLattice[T]) Show(e FlatElement[T]) string {
	switch e.kind {
	case flatBot:
		return colorize.Element("⊥")
	case flatTop:
		return colorize.Element("⊤")
	}
	return colorize.Const(fmt.Sprint(e.v))
}

func (l FlatLattice[T]) String() string {
	return colorize.LatticeCon("Flat") + "(" + colorize.Lattice(l.name) + ")"
}
