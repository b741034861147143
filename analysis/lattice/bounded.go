package lattice

import "fmt"

// BoundedLattice is the chain 0 ⊑ 1 ⊑ ... ⊑ k, where k stands for "k or more".
type BoundedLattice struct {
	k int
}

// Bounded constructs the saturating counter lattice with ceiling k.
func Bounded(k int) BoundedLattice {
	if k < 0 {
		panic(fmt.Errorf("negative ceiling %d", k))
	}
	return BoundedLattice{k}
}

// Ceiling returns k.
func (l BoundedLattice) Ceiling() int {
	return l.k
}

// Clamp maps any integer onto the chain.
func (l BoundedLattice) Clamp(n int) int {
	switch {
	case n < 0:
		return 0
	case n > l.k:
		return l.k
	}
	return n
}

// Inc adds one, saturating at k.
func (l BoundedLattice) Inc(n int) int {
	return l.Clamp(n + 1)
}

func (BoundedLattice) Bot() int {
	return 0
}

func (l BoundedLattice) Top() int {
	return l.k
}

func (BoundedLattice) Leq(a, b int) bool {
	return a <= b
}

func (BoundedLattice) Eq(a, b int) bool {
	return a == b
}

func (BoundedLattice) Join(a, b int) int {
	return max(a, b)
}

// Widen jumps to the ceiling when the value keeps growing.
func (l BoundedLattice) Widen(prev, next int, _ int) int {
	if next <= prev {
		return prev
	}
	return l.k
}

func (l BoundedLattice) Show(n int) string {
	if n >= l.k {
		return colorize.Const(fmt.Sprintf("≥%d", l.k))
	}
	return colorize.Const(n)
}

func (l BoundedLattice) String() string {
	return colorize.Lattice(fmt.Sprintf("[0, %d]", l.k))
}
