package lattice

import (
	"fmt"
	"sort"
	"strings"

	"github.com/benbjohnson/immutable"

	"github.com/cs-au-dk/fixpoint/utils/tree"
)

// Set is a persistent set of T. A set may also be the explicit ⊤ of an
// infinite powerset, in which case it contains everything.
type Set[T any] struct {
	top bool
	t   tree.Tree[T, struct{}]
}

// EmptySet creates an empty set using the given hasher.
func EmptySet[T any](hasher immutable.Hasher[T]) Set[T] {
	return Set[T]{t: tree.NewTree[T, struct{}](hasher)}
}

// SetOf creates a set from the given elements.
func SetOf[T any](hasher immutable.Hasher[T], xs ...T) Set[T] {
	s := EmptySet(hasher)
	for _, x := range xs {
		s = s.Add(x)
	}
	return s
}

func (s Set[T]) IsTop() bool {
	return s.top
}

func (s Set[T]) Contains(x T) bool {
	if s.top {
		return true
	}
	_, found := s.t.Lookup(x)
	return found
}

func (s Set[T]) Add(x T) Set[T] {
	if s.top {
		return s
	}
	s.t = s.t.Insert(x, struct{}{})
	return s
}

func (s Set[T]) Remove(x T) Set[T] {
	if s.top {
		return s
	}
	s.t = s.t.Remove(x)
	return s
}

// Size is the number of elements. ⊤ has size -1.
func (s Set[T]) Size() int {
	if s.top {
		return -1
	}
	return s.t.Size()
}

func (s Set[T]) IsEmpty() bool {
	return !s.top && s.t.IsEmpty()
}

// ForEach visits every element of a non-⊤ set.
func (s Set[T]) ForEach(f func(T)) {
	s.t.ForEach(func(x T, _ struct{}) { f(x) })
}

// Elements lists the elements of a non-⊤ set in unspecified order.
func (s Set[T]) Elements() (ret []T) {
	s.ForEach(func(x T) { ret = append(ret, x) })
	return
}

func (s Set[T]) Union(o Set[T]) Set[T] {
	if s.top || o.top {
		return Set[T]{top: true, t: tree.NewTree[T, struct{}](s.t.Hasher())}
	}
	s.t = s.t.Merge(o.t, keepSet)
	return s
}

func (s Set[T]) Intersect(o Set[T]) Set[T] {
	switch {
	case s.top:
		return o
	case o.top:
		return s
	}
	s.t = s.t.Intersect(o.t, keepSet)
	return s
}

// SubsetOf checks s ⊆ o.
func (s Set[T]) SubsetOf(o Set[T]) bool {
	switch {
	case o.top:
		return true
	case s.top:
		return false
	}
	return s.t.ForAll(func(x T, _ struct{}) bool {
		_, found := o.t.Lookup(x)
		return found
	})
}

func (s Set[T]) Equal(o Set[T]) bool {
	if s.top || o.top {
		return s.top == o.top
	}
	return s.t.Equal(o.t, func(_, _ struct{}) bool { return true })
}

// String prints the elements sorted by their printed representation.
func (s Set[T]) String() string {
	if s.top {
		return colorize.Element("⊤")
	}
	strs := []string{}
	s.ForEach(func(x T) {
		strs = append(strs, fmt.Sprint(x))
	})
	if len(strs) == 0 {
		return colorize.Element("∅")
	}
	sort.Strings(strs)
	return "{ " + strings.Join(strs, ", ") + " }"
}

func keepSet(_, _ struct{}) (struct{}, bool) {
	return struct{}{}, true
}

// PowersetLattice is the finite powerset of a bounded universe, ordered by
// inclusion. Widening is join: chains are bounded by the universe size.
type PowersetLattice[T any] struct {
	hasher   immutable.Hasher[T]
	universe Set[T]
}

// Powerset constructs ℘(universe).
func Powerset[T any](hasher immutable.Hasher[T], universe ...T) PowersetLattice[T] {
	return PowersetLattice[T]{hasher, SetOf(hasher, universe...)}
}

// InUniverse checks whether x belongs to the lattice's universe.
func (l PowersetLattice[T]) InUniverse(x T) bool {
	return l.universe.Contains(x)
}

// Make creates a set from the given elements. Elements outside the universe
// are a contract violation.
func (l PowersetLattice[T]) Make(xs ...T) Set[T] {
	s := l.Bot()
	for _, x := range xs {
		s = l.Add(s, x)
	}
	return s
}

// Add inserts x into s. x must belong to the universe.
func (l PowersetLattice[T]) Add(s Set[T], x T) Set[T] {
	if !l.InUniverse(x) {
		panic(fmt.Errorf("%v: %w %s", x, ErrNotInUniverse, l))
	}
	return s.Add(x)
}

func (l PowersetLattice[T]) Bot() Set[T] {
	return EmptySet(l.hasher)
}

func (l PowersetLattice[T]) Top() Set[T] {
	return l.universe
}

func (l PowersetLattice[T]) Leq(a, b Set[T]) bool {
	return a.SubsetOf(b)
}

func (l PowersetLattice[T]) Eq(a, b Set[T]) bool {
	return a.Equal(b)
}

func (l PowersetLattice[T]) Join(a, b Set[T]) Set[T] {
	return a.Union(b)
}

func (l PowersetLattice[T]) Widen(prev, next Set[T], _ int) Set[T] {
	return prev.Union(next)
}

func (l PowersetLattice[T]) Show(s Set[T]) string {
	return s.String()
}

func (l PowersetLattice[T]) String() string {
	return colorize.LatticeCon("℘") + "(" + l.universe.String() + ")"
}

// InfinitePowersetLattice is the powerset of an unbounded universe with an
// explicit ⊤. Widening jumps to ⊤ as soon as the set grows, which is what
// keeps chains finite.
type InfinitePowersetLattice[T any] struct {
	hasher immutable.Hasher[T]
	name   string
}

// InfinitePowerset constructs ℘(name) for a universe that cannot be
// enumerated.
func InfinitePowerset[T any](hasher immutable.Hasher[T], name string) InfinitePowersetLattice[T] {
	return InfinitePowersetLattice[T]{hasher, name}
}

func (l InfinitePowersetLattice[T]) Make(xs ...T) Set[T] {
	return SetOf(l.hasher, xs...)
}

func (l InfinitePowersetLattice[T]) Bot() Set[T] {
	return EmptySet(l.hasher)
}

func (l InfinitePowersetLattice[T]) Top() Set[T] {
	return Set[T]{top: true, t: tree.NewTree[T, struct{}](l.hasher)}
}

func (l InfinitePowersetLattice[T]) Leq(a, b Set[T]) bool {
	return a.SubsetOf(b)
}

func (l InfinitePowersetLattice[T]) Eq(a, b Set[T]) bool {
	return a.Equal(b)
}

func (l InfinitePowersetLattice[T]) Join(a, b Set[T]) Set[T] {
	return a.Union(b)
}

func (l InfinitePowersetLattice[T]) Widen(prev, next Set[T], _ int) Set[T] {
	if next.SubsetOf(prev) {
		return prev
	}
	return l.Top()
}

func (l InfinitePowersetLattice[T]) Show(s Set[T]) string {
	return s.String()
}

func (l InfinitePowersetLattice[T]) String() string {
	return colorize.LatticeCon("℘") + "(" + colorize.Lattice(l.name) + ")"
}
