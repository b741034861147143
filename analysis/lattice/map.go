package lattice

import (
	"fmt"
	"sort"

	"github.com/benbjohnson/immutable"

	i "github.com/cs-au-dk/fixpoint/utils/indenter"
	"github.com/cs-au-dk/fixpoint/utils/tree"
)

// Map is a persistent finite map from K to lattice values V. What an unbound
// key means is decided by the lattice the map belongs to.
type Map[K, V any] struct {
	// bot is only ever set for the explicit ⊥ of inverted maps.
	bot bool
	t   tree.Tree[K, V]
}

// Lookup retrieves the binding of k, if any.
func (m Map[K, V]) Lookup(k K) (V, bool) {
	return m.t.Lookup(k)
}

// Update binds k to v.
func (m Map[K, V]) Update(k K, v V) Map[K, V] {
	m.t = m.t.Insert(k, v)
	return m
}

// Remove unbinds k.
func (m Map[K, V]) Remove(k K) Map[K, V] {
	m.t = m.t.Remove(k)
	return m
}

func (m Map[K, V]) ForEach(f func(K, V)) {
	m.t.ForEach(f)
}

// Size is the number of bound keys.
func (m Map[K, V]) Size() int {
	return m.t.Size()
}

// IsBot checks whether m is the explicit ⊥ of an inverted map.
func (m Map[K, V]) IsBot() bool {
	return m.bot
}

func showMap[K, V any](m Map[K, V], show func(V) string) string {
	buf := []string{}
	m.t.ForEach(func(k K, v V) {
		buf = append(buf, colorize.Key(fmt.Sprint(k))+" ↦ "+show(v))
	})
	if len(buf) == 0 {
		return "[]"
	}
	sort.Strings(buf)
	return i.Indenter().Start("[").NestStrings(buf...).End("]")
}

// MapLattice orders maps pointwise. An unbound key is the range's ⊥.
type MapLattice[K, V any] struct {
	hasher immutable.Hasher[K]
	Range  Lattice[V]
}

// MapOf constructs the lattice K → Range.
func MapOf[K, V any](hasher immutable.Hasher[K], rng Lattice[V]) MapLattice[K, V] {
	return MapLattice[K, V]{hasher, rng}
}

func (l MapLattice[K, V]) Bot() Map[K, V] {
	return Map[K, V]{t: tree.NewTree[K, V](l.hasher)}
}

// Get retrieves the value of k, defaulting to ⊥.
func (l MapLattice[K, V]) Get(m Map[K, V], k K) V {
	if v, found := m.t.Lookup(k); found {
		return v
	}
	return l.Range.Bot()
}

// WeakUpdate joins v into the value of k.
func (l MapLattice[K, V]) WeakUpdate(m Map[K, V], k K, v V) Map[K, V] {
	return m.Update(k, l.Range.Join(l.Get(m, k), v))
}

func (l MapLattice[K, V]) Leq(a, b Map[K, V]) bool {
	return a.t.ForAll(func(k K, v V) bool {
		return l.Range.Leq(v, l.Get(b, k))
	})
}

func (l MapLattice[K, V]) Eq(a, b Map[K, V]) bool {
	return l.Leq(a, b) && l.Leq(b, a)
}

// join merges the values of a key bound on both sides. The flag reports
// a = b, which lets the tree reuse either side.
func (l MapLattice[K, V]) join(a, b V) (V, bool) {
	if l.Range.Eq(a, b) {
		return b, true
	}
	return l.Range.Join(a, b), false
}

func (l MapLattice[K, V]) Join(a, b Map[K, V]) Map[K, V] {
	a.t = a.t.Merge(b.t, l.join)
	return a
}

// Widen widens pointwise, with unbound keys filled in as ⊥.
func (l MapLattice[K, V]) Widen(prev, next Map[K, V], iters int) Map[K, V] {
	res := prev
	next.t.ForEach(func(k K, v V) {
		pv := l.Get(prev, k)
		if !l.Range.Leq(v, pv) {
			res = res.Update(k, l.Range.Widen(pv, v, iters))
		}
	})
	return res
}

func (l MapLattice[K, V]) Show(m Map[K, V]) string {
	return showMap(m, l.Range.Show)
}

func (l MapLattice[K, V]) String() string {
	return colorize.LatticeCon("𝕂") + " → " + l.Range.String()
}

// InvertedMapLattice orders maps pointwise where an unbound key is the
// range's ⊤. Binding more keys constrains the map further, so join keeps only
// the keys bound on both sides. ⊥ is an explicit element.
type InvertedMapLattice[K, V any] struct {
	hasher immutable.Hasher[K]
	Range  Lattice[V]
}

// InvertedMapOf constructs the inverted lattice K → Range.
func InvertedMapOf[K, V any](hasher immutable.Hasher[K], rng Lattice[V]) InvertedMapLattice[K, V] {
	return InvertedMapLattice[K, V]{hasher, rng}
}

func (l InvertedMapLattice[K, V]) Bot() Map[K, V] {
	return Map[K, V]{bot: true, t: tree.NewTree[K, V](l.hasher)}
}

// Top is the unconstrained map.
func (l InvertedMapLattice[K, V]) Top() Map[K, V] {
	return Map[K, V]{t: tree.NewTree[K, V](l.hasher)}
}

// Get retrieves the binding of k. An unbound key is unconstrained, which the
// second return value reports as false.
func (l InvertedMapLattice[K, V]) Get(m Map[K, V], k K) (V, bool) {
	return m.t.Lookup(k)
}

// Constrain binds k to v. Constraining ⊥ leaves it ⊥.
func (l InvertedMapLattice[K, V]) Constrain(m Map[K, V], k K, v V) Map[K, V] {
	if m.bot {
		return m
	}
	return m.Update(k, v)
}

func (l InvertedMapLattice[K, V]) Leq(a, b Map[K, V]) bool {
	switch {
	case a.bot:
		return true
	case b.bot:
		return false
	}
	return b.t.ForAll(func(k K, bv V) bool {
		av, found := a.t.Lookup(k)
		return found && l.Range.Leq(av, bv)
	})
}

func (l InvertedMapLattice[K, V]) Eq(a, b Map[K, V]) bool {
	if a.bot || b.bot {
		return a.bot == b.bot
	}
	return a.t.Equal(b.t, l.Range.Eq)
}

func (l InvertedMapLattice[K, V]) Join(a, b Map[K, V]) Map[K, V] {
	switch {
	case a.bot:
		return b
	case b.bot:
		return a
	}
	a.t = a.t.Intersect(b.t, func(x, y V) (V, bool) {
		res := l.Range.Join(x, y)
		return res, l.Range.Eq(res, y)
	})
	return a
}

// Widen widens pointwise on the keys bound on both sides. The set of bound
// keys can only shrink, so chains stabilize when the range's widening does.
func (l InvertedMapLattice[K, V]) Widen(prev, next Map[K, V], iters int) Map[K, V] {
	switch {
	case prev.bot:
		return next
	case next.bot:
		return prev
	}
	prev.t = prev.t.Intersect(next.t, func(x, y V) (V, bool) {
		return l.Range.Widen(x, y, iters), false
	})
	return prev
}

func (l InvertedMapLattice[K, V]) Show(m Map[K, V]) string {
	if m.bot {
		return colorize.Element("⊥")
	}
	return showMap(m, l.Range.Show)
}

func (l InvertedMapLattice[K, V]) String() string {
	return colorize.LatticeCon("𝕂") + " ⇀ " + l.Range.String()
}
