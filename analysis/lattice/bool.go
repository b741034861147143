package lattice

// BoolLattice is one of the two-point lattices over bool.
type BoolLattice struct {
	// bot is the least element: false for "holds on some path",
	// true for "holds on all paths".
	bot bool
}

// BoolOr is the lattice of facts that hold on some path: false ⊑ true and
// join is disjunction.
func BoolOr() BoolLattice {
	return BoolLattice{false}
}

// BoolAnd is the lattice of facts that hold on all paths: true ⊑ false and
// join is conjunction.
func BoolAnd() BoolLattice {
	return BoolLattice{true}
}

func (l BoolLattice) Bot() bool { return l.bot }
func (l BoolLattice) Top() bool { return !l.bot }

func (l BoolLattice) Leq(a, b bool) bool {
	return a == l.bot || a == b
}

func (l BoolLattice) Eq(a, b bool) bool {
	return a == b
}

func (l BoolLattice) Join(a, b bool) bool {
	if l.bot {
		return a && b
	}
	return a || b
}

// Widen is join, since the lattice has height 1.
func (l BoolLattice) Widen(prev, next bool, _ int) bool {
	return l.Join(prev, next)
}

func (l BoolLattice) Show(b bool) string {
	return colorize.Element(b)
}

func (l BoolLattice) String() string {
	if l.bot {
		return colorize.Lattice("𝔹∧")
	}
	return colorize.Lattice("𝔹∨")
}
