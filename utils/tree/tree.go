package tree

import (
	"fmt"
	"sort"

	i "github.com/cs-au-dk/fixpoint/utils/indenter"

	"github.com/benbjohnson/immutable"
)

// NewTree constructs a new persistent key-value map with the specified hasher.
func NewTree[K, V any](hasher immutable.Hasher[K]) Tree[K, V] {
	return Tree[K, V]{hasher, nil}
}

// Tree is a persistent map implemented as a big-endian Patricia tree over
// key hashes. Updates never modify existing nodes, so old versions remain
// valid and subtrees are shared between versions.
type Tree[K, V any] struct {
	hasher immutable.Hasher[K]
	root   node[K, V]
}

// Hasher returns the hasher the tree was constructed with.
func (tree Tree[K, V]) Hasher() immutable.Hasher[K] {
	return tree.hasher
}

// Lookup retrieves the value bound to key.
func (tree Tree[K, V]) Lookup(key K) (V, bool) {
	// Hashing can be expensive, so we hash the key once here and pass it on.
	return lookup(tree.root, tree.hasher.Hash(key), key, tree.hasher)
}

// Insert inserts the given key-value pair into the map.
// Replaces previous value with the same key if it exists.
func (tree Tree[K, V]) Insert(key K, value V) Tree[K, V] {
	return tree.InsertOrMerge(key, value, nil)
}

// InsertOrMerge inserts the given key-value pair into the map. If a previous
// mapping (prevValue) exists for the key, the inserted value will be
// `f(value, prevValue)`.
func (tree Tree[K, V]) InsertOrMerge(key K, value V, f MergeFunc[V]) Tree[K, V] {
	tree.root, _ = insert(tree.root, tree.hasher.Hash(key), key, value, tree.hasher, f)
	return tree
}

// Remove a mapping for the given key if it exists.
func (tree Tree[K, V]) Remove(key K) Tree[K, V] {
	hash := tree.hasher.Hash(key)
	if _, found := lookup(tree.root, hash, key, tree.hasher); !found {
		// Keep the tree reference-equal when nothing is removed.
		return tree
	}
	tree.root = remove(tree.root, hash, key, tree.hasher)
	return tree
}

// ForEach calls the given function once for each key-value pair in the map.
func (tree Tree[K, V]) ForEach(f func(key K, value V)) {
	if tree.root != nil {
		tree.root.all(func(k K, v V) bool {
			f(k, v)
			return true
		})
	}
}

// ForAll checks whether the predicate holds for every binding. Iteration
// stops at the first binding that falsifies it.
func (tree Tree[K, V]) ForAll(pred func(key K, value V) bool) bool {
	if tree.root == nil {
		return true
	}
	return tree.root.all(pred)
}

// Merge merges two maps. If both maps contain a value for a key, the
// resulting map will map the key to the result of `f` on the two values.
// `f` must be commutative and idempotent!
// This operation is made fast by skipping processing of shared subtrees.
func (tree Tree[K, V]) Merge(other Tree[K, V], f MergeFunc[V]) Tree[K, V] {
	tree.root, _ = merge(tree.root, other.root, tree.hasher, f)
	return tree
}

// Intersect keeps only the keys bound in both maps, binding them to the
// result of `f` on the two values.
func (tree Tree[K, V]) Intersect(other Tree[K, V], f MergeFunc[V]) Tree[K, V] {
	if tree.root == other.root {
		return tree
	}

	res := NewTree[K, V](tree.hasher)
	small, large, swapped := tree, other, false
	if small.Size() > large.Size() {
		small, large, swapped = large, small, true
	}

	small.ForEach(func(k K, v V) {
		if w, found := large.Lookup(k); found {
			// f receives this tree's value first.
			if swapped {
				v, w = w, v
			}
			merged, _ := f(v, w)
			res = res.Insert(k, merged)
		}
	})
	return res
}

// Equal returns whether two maps are equal. Values are compared with the
// provided function. This operation also skips processing of shared subtrees.
func (tree Tree[K, V]) Equal(other Tree[K, V], f func(a, b V) bool) bool {
	return equal(tree.root, other.root, tree.hasher, f)
}

// Size returns the number of key-value pairs in the map.
// NOTE: Runs in linear time in the size of the map.
func (tree Tree[K, V]) Size() (res int) {
	tree.ForEach(func(_ K, _ V) {
		res++
	})
	return
}

// IsEmpty is a constant time emptiness check.
func (tree Tree[K, V]) IsEmpty() bool {
	return tree.root == nil
}

// StringFiltered prints the bindings satisfying the predicate, sorted by
// their printed representation.
func (tree Tree[K, V]) StringFiltered(pred func(k K, v V) bool) string {
	buf := []string{}

	tree.ForEach(func(k K, v V) {
		if pred(k, v) {
			buf = append(buf, fmt.Sprintf("%v ↦ %v", k, v))
		}
	})

	if len(buf) == 0 {
		return "{}"
	}

	sort.Strings(buf)
	return i.Indenter().Start("{").NestStrings(buf...).End("}")
}

func (tree Tree[K, V]) String() string {
	return tree.StringFiltered(func(_ K, _ V) bool { return true })
}

// End of public interface

// The patricia tree implementation is based on:
// http://ittc.ku.edu/~andygill/papers/IntMap98.pdf

type node[K, V any] interface {
	all(func(K, V) bool) bool
}

type keyt = uint32

type branch[K, V any] struct {
	prefix keyt // Common prefix of all keys in the left and right subtrees
	// A number with exactly one positive bit. The position of the bit
	// determines where the prefixes of the left and right subtrees diverge.
	branchBit keyt
	left      node[K, V]
	right     node[K, V]
}

func (b *branch[K, V]) all(f func(K, V) bool) bool {
	return b.left.all(f) && b.right.all(f)
}

// Returns whether the key matches the prefix up until the branching bit.
// Intuitively: does the key belong in the branch's subtree?
func (b *branch[K, V]) match(key keyt) bool {
	return (key & (b.branchBit - 1)) == b.prefix
}

type pair[K, V any] struct {
	key   K
	value V
}

type leaf[K, V any] struct {
	// The (shared) hash value of all keys in the leaf.
	key keyt
	// List of values to handle hash collisions.
	values []pair[K, V]
}

func (l *leaf[K, V]) copy() *leaf[K, V] {
	return &leaf[K, V]{
		l.key,
		append([]pair[K, V](nil), l.values...),
	}
}

func (l *leaf[K, V]) all(f func(K, V) bool) bool {
	for _, pr := range l.values {
		if !f(pr.key, pr.value) {
			return false
		}
	}
	return true
}

// Smart branch constructor
func br[K, V any](prefix, branchBit keyt, left, right node[K, V]) node[K, V] {
	if left == nil {
		return right
	} else if right == nil {
		return left
	}

	return &branch[K, V]{prefix, branchBit, left, right}
}

func zeroBit(k, m keyt) bool {
	return (k & m) == 0
}

// branchingBit returns the lowest bit on which p0 and p1 differ.
func branchingBit(p0, p1 keyt) keyt {
	diff := p0 ^ p1
	return diff & -diff
}

func lookup[K, V any](tree node[K, V], hash keyt, key K, hasher immutable.Hasher[K]) (ret V, found bool) {
	for tree != nil {
		switch t := tree.(type) {
		case *leaf[K, V]:
			if t.key == hash {
				for _, pr := range t.values {
					if hasher.Equal(key, pr.key) {
						return pr.value, true
					}
				}
			}
			return

		case *branch[K, V]:
			if !t.match(hash) {
				return
			} else if zeroBit(hash, t.branchBit) {
				tree = t.left
			} else {
				tree = t.right
			}

		default:
			panic(fmt.Errorf("unexpected tree node %T", tree))
		}
	}
	return
}

// Joins two trees t0 and t1 which have prefixes p0 and p1 respectively.
// The prefixes must not be equal!
func join[K, V any](p0, p1 keyt, t0, t1 node[K, V]) node[K, V] {
	bbit := branchingBit(p0, p1)
	prefix := p0 & (bbit - 1)
	if zeroBit(p0, bbit) {
		return &branch[K, V]{prefix, bbit, t0, t1}
	}
	return &branch[K, V]{prefix, bbit, t1, t0}
}

// MergeFunc merges two values. Must be commutative and idempotent when used
// with Merge. The second return value informs the caller whether a == b,
// which lets the tree keep old nodes instead of replacing them with "equal"
// copies.
type MergeFunc[V any] func(a, b V) (V, bool)

// If `f` is nil the old value is always replaced with the argument value, otherwise
// the old value is replaced with `f(value, prevValue)`.
// If the returned flag is false, the returned node is (reference-)equal to the input node.
func insert[K, V any](tree node[K, V], hash keyt, key K, value V, hasher immutable.Hasher[K], f MergeFunc[V]) (node[K, V], bool) {
	if tree == nil {
		return &leaf[K, V]{key: hash, values: []pair[K, V]{{key, value}}}, true
	}

	var prefix keyt
	switch tree := tree.(type) {
	case *leaf[K, V]:
		if tree.key == hash {
			for i, pr := range tree.values {
				if hasher.Equal(key, pr.key) {
					newValue := value
					if f != nil {
						var equal bool
						if newValue, equal = f(value, pr.value); equal {
							return tree, false
						}
					}

					lf := tree.copy()
					lf.values[i].value = newValue
					return lf, true
				}
			}

			// Hash collision - append to list of values in leaf
			lf := tree.copy()
			lf.values = append(lf.values, pair[K, V]{key, value})
			return lf, true
		}

		prefix = tree.key

	case *branch[K, V]:
		if tree.match(hash) {
			l, r := tree.left, tree.right
			var changed bool
			if zeroBit(hash, tree.branchBit) {
				l, changed = insert(l, hash, key, value, hasher, f)
			} else {
				r, changed = insert(r, hash, key, value, hasher, f)
			}
			if !changed {
				return tree, false
			}
			return &branch[K, V]{tree.prefix, tree.branchBit, l, r}, true
		}

		prefix = tree.prefix

	default:
		panic(fmt.Errorf("unexpected tree node %T", tree))
	}

	newLeaf := &leaf[K, V]{key: hash, values: []pair[K, V]{{key, value}}}
	return join[K, V](hash, prefix, newLeaf, tree), true
}

func remove[K, V any](tree node[K, V], hash keyt, key K, hasher immutable.Hasher[K]) node[K, V] {
	switch tree := tree.(type) {
	case nil:
		return nil
	case *leaf[K, V]:
		if tree.key != hash {
			return tree
		}

		newLeaf := &leaf[K, V]{tree.key, nil}
		for _, pr := range tree.values {
			if !hasher.Equal(key, pr.key) {
				newLeaf.values = append(newLeaf.values, pr)
			}
		}

		if len(newLeaf.values) == 0 {
			return nil
		}
		return newLeaf

	case *branch[K, V]:
		if !tree.match(hash) {
			return tree
		}

		left, right := tree.left, tree.right
		if zeroBit(hash, tree.branchBit) {
			left = remove(left, hash, key, hasher)
		} else {
			right = remove(right, hash, key, hasher)
		}
		return br(tree.prefix, tree.branchBit, left, right)

	default:
		panic(fmt.Errorf("unexpected tree node %T", tree))
	}
}

// If the returned flag is true, a and b represent equal trees
func merge[K, V any](a, b node[K, V], hasher immutable.Hasher[K], f MergeFunc[V]) (node[K, V], bool) {
	// Cheap pointer-equality
	if a == b {
		return a, true
	} else if a == nil {
		return b, false
	} else if b == nil {
		return a, false
	}

	// Check if either a or b is a leaf
	lf, isLeaf := a.(*leaf[K, V])
	other := b
	if !isLeaf {
		lf, isLeaf = b.(*leaf[K, V])
		other = a
	}

	if isLeaf {
		originalOther := other
		for _, pr := range lf.values {
			other, _ = insert(other, lf.key, pr.key, pr.value, hasher, f)
		}

		if oLf, oIsLeaf := other.(*leaf[K, V]); oIsLeaf &&
			other == originalOther &&
			len(lf.values) == len(oLf.values) {
			// The other leaf absorbed all our bindings without changing and
			// holds as many bindings as we do, so the leaves are equal.
			return a, true
		}

		return other, false
	}

	// Both a and b are branches
	s, t := a.(*branch[K, V]), b.(*branch[K, V])
	if s.branchBit == t.branchBit && s.prefix == t.prefix {
		l, leq := merge(s.left, t.left, hasher, f)
		r, req := merge(s.right, t.right, hasher, f)
		switch {
		case leq && req:
			return s, true
		case l == s.left && r == s.right:
			return s, false
		case l == t.left && r == t.right:
			return t, false
		}

		return &branch[K, V]{s.prefix, s.branchBit, l, r}, false
	}

	if s.branchBit > t.branchBit {
		s, t = t, s
	}

	if s.branchBit < t.branchBit && s.match(t.prefix) {
		// s contains t
		l, r := s.left, s.right
		if zeroBit(t.prefix, s.branchBit) {
			if l, _ = merge(l, node[K, V](t), hasher, f); l == s.left {
				return s, false
			}
		} else {
			if r, _ = merge(r, node[K, V](t), hasher, f); r == s.right {
				return s, false
			}
		}
		return &branch[K, V]{s.prefix, s.branchBit, l, r}, false
	}

	// prefixes disagree
	return join(s.prefix, t.prefix, node[K, V](s), node[K, V](t)), false
}

func equal[K, V any](a, b node[K, V], hasher immutable.Hasher[K], f func(a, b V) bool) bool {
	if a == b {
		return true
	} else if a == nil || b == nil {
		return false
	}

	switch a := a.(type) {
	case *leaf[K, V]:
		b, ok := b.(*leaf[K, V])
		if !ok || a.key != b.key || len(a.values) != len(b.values) {
			return false
		}

	FOUND:
		for _, apr := range a.values {
			for _, bpr := range b.values {
				if hasher.Equal(apr.key, bpr.key) {
					if !f(apr.value, bpr.value) {
						return false
					}

					continue FOUND
				}
			}

			// a contained a key that b did not
			return false
		}

		return true

	case *branch[K, V]:
		b, ok := b.(*branch[K, V])
		if !ok {
			return false
		}

		return a.prefix == b.prefix && a.branchBit == b.branchBit &&
			equal(a.left, b.left, hasher, f) && equal(a.right, b.right, hasher, f)

	default:
		panic(fmt.Errorf("unexpected tree node %T", a))
	}
}
