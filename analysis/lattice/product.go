package lattice

import (
	"strings"

	i "github.com/cs-au-dk/fixpoint/utils/indenter"
)

// Pair is an element of a product lattice.
type Pair[A, B any] struct {
	First  A
	Second B
}

func MakePair[A, B any](a A, b B) Pair[A, B] {
	return Pair[A, B]{a, b}
}

// UpdateFirst returns a copy of p with the first component replaced.
func (p Pair[A, B]) UpdateFirst(a A) Pair[A, B] {
	p.First = a
	return p
}

// UpdateSecond returns a copy of p with the second component replaced.
func (p Pair[A, B]) UpdateSecond(b B) Pair[A, B] {
	p.Second = b
	return p
}

// ProductLattice orders pairs componentwise.
type ProductLattice[A, B any] struct {
	L1 Lattice[A]
	L2 Lattice[B]
}

// Product constructs L1 × L2.
func Product[A, B any](l1 Lattice[A], l2 Lattice[B]) ProductLattice[A, B] {
	return ProductLattice[A, B]{l1, l2}
}

func (l ProductLattice[A, B]) Bot() Pair[A, B] {
	return Pair[A, B]{l.L1.Bot(), l.L2.Bot()}
}

func (l ProductLattice[A, B]) Leq(a, b Pair[A, B]) bool {
	return l.L1.Leq(a.First, b.First) && l.L2.Leq(a.Second, b.Second)
}

func (l ProductLattice[A, B]) Eq(a, b Pair[A, B]) bool {
	return l.L1.Eq(a.First, b.First) && l.L2.Eq(a.Second, b.Second)
}

func (l ProductLattice[A, B]) Join(a, b Pair[A, B]) Pair[A, B] {
	return Pair[A, B]{
		l.L1.Join(a.First, b.First),
		l.L2.Join(a.Second, b.Second),
	}
}

func (l ProductLattice[A, B]) Widen(prev, next Pair[A, B], iters int) Pair[A, B] {
	return Pair[A, B]{
		l.L1.Widen(prev.First, next.First, iters),
		l.L2.Widen(prev.Second, next.Second, iters),
	}
}

// Show prints short pairs on one line.
func (l ProductLattice[A, B]) Show(e Pair[A, B]) string {
	a, b := l.L1.Show(e.First), l.L2.Show(e.Second)
	if !strings.Contains(a+b, "\n") {
		return "⟨" + a + ", " + b + "⟩"
	}
	return i.Indenter().Start("⟨").NestStringsSep(",", a, b).End("⟩")
}

func (l ProductLattice[A, B]) String() string {
	return l.L1.String() + " " + colorize.LatticeCon("×") + " " + l.L2.String()
}
