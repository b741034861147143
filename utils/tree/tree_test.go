package tree

import (
	"math/rand"
	"testing"

	"github.com/benbjohnson/immutable"
)

var intHasher = immutable.NewHasher(int(0))
var uint32Hasher = immutable.NewHasher(uint32(0))

type badHasher struct{}

func (badHasher) Hash(int) uint32     { return 0 }
func (badHasher) Equal(a, b int) bool { return a == b }

type memHasher struct {
	mem   map[int]uint32
	limit int
}

func (m memHasher) Hash(x int) uint32 {
	if v, ok := m.mem[x]; ok {
		return v
	}
	h := uint32(rand.Intn(m.limit))
	m.mem[x] = h
	return h
}
func (m memHasher) Equal(a, b int) bool { return a == b }

func mkMemHasher(limit int) memHasher {
	return memHasher{make(map[int]uint32), limit}
}

func intEq(a, b int) bool { return a == b }

func max(x, y int) (int, bool) {
	if x == y {
		return x, true
	}
	if x > y {
		return x, false
	}
	return y, false
}

func min(x, y int) (int, bool) {
	if x < y {
		return x, x == y
	}
	return y, x == y
}

func mkTest[K comparable](t *testing.T) (
	func(tree Tree[K, int], key K, val int),
	func(Tree[K, int], K),
) {
	return func(tree Tree[K, int], key K, expectVal int) {
			t.Helper()
			if val, found := tree.Lookup(key); found {
				if val != expectVal {
					t.Errorf("Lookup(%v) = %v, expected: %v", key, val, expectVal)
				}
			} else {
				t.Error("Expected hit for", key)
			}
		}, func(tree Tree[K, int], key K) {
			t.Helper()
			if _, found := tree.Lookup(key); found {
				t.Fatal("Expected miss for", key)
			}
		}
}

func TestEmpty(t *testing.T) {
	_, miss := mkTest[int](t)
	tree := NewTree[int, int](intHasher)
	miss(tree, 0)
	if !tree.IsEmpty() || tree.Size() != 0 {
		t.Error("fresh tree should be empty")
	}
}

func TestSameKey(t *testing.T) {
	for _, hasher := range []immutable.Hasher[int]{intHasher, badHasher{}} {
		hit, miss := mkTest[int](t)
		tree0 := NewTree[int, int](hasher)
		tree1 := tree0.Insert(0, 1)
		tree2 := tree1.Insert(0, 2)

		miss(tree0, 0)
		hit(tree1, 0, 1)
		hit(tree2, 0, 2)

		if tree1.Equal(tree2, intEq) {
			t.Error(tree1, "should not equal", tree2)
		}
	}
}

func TestHashCollision(t *testing.T) {
	hit, miss := mkTest[int](t)
	tree0 := NewTree[int, int](badHasher{})
	tree1 := tree0.Insert(1, 10)
	tree2 := tree1.Insert(2, 20)

	miss(tree0, 1)
	miss(tree0, 2)

	hit(tree1, 1, 10)
	miss(tree1, 2)

	hit(tree2, 1, 10)
	hit(tree2, 2, 20)
}

func TestManyInsert(t *testing.T) {
	hit, _ := mkTest[uint32](t)
	const N = 100

	for iter := 0; iter < 50; iter++ {
		tree := NewTree[uint32, int](uint32Hasher)

		keys := map[uint32]int{}
		for i := 0; i < N; i++ {
			k := rand.Uint32()
			keys[k] = i
			tree = tree.Insert(k, i)
		}

		for k, v := range keys {
			hit(tree, k, v)
		}
	}
}

func TestHistory(t *testing.T) {
	hit, miss := mkTest[int](t)
	const N = 100

	for _, hasher := range []immutable.Hasher[int]{intHasher, mkMemHasher(N / 5)} {
		tree := NewTree[int, int](hasher)
		history := []Tree[int, int]{tree}

		for i := 0; i < N; i++ {
			tree = tree.Insert(i, i)
			history = append(history, tree)
		}

		for vidx, tree := range history {
			for i := 0; i < N; i++ {
				if vidx <= i {
					miss(tree, i)
				} else {
					hit(tree, i, i)
				}
			}
		}
	}
}

func TestSimpleMerge(t *testing.T) {
	hit, _ := mkTest[int](t)
	for _, hasher := range []immutable.Hasher[int]{intHasher, badHasher{}, mkMemHasher(2)} {
		a := NewTree[int, int](hasher).Insert(0, 1).Insert(1, 1)
		b := NewTree[int, int](hasher).Insert(1, 2).Insert(2, 2)

		check := func(tree Tree[int, int]) {
			hit(tree, 0, 1)
			hit(tree, 1, 2)
			hit(tree, 2, 2)

			if sz := tree.Size(); sz != 3 {
				t.Error("Wrong size:", sz)
			}
		}

		check(a.Merge(b, max))
		check(b.Merge(a, max))
	}
}

func TestPointerEqualityAfterMerge(t *testing.T) {
	a, b := NewTree[int, int](intHasher), NewTree[int, int](intHasher)
	for i := 0; i < 4; i++ {
		a = a.Insert(i, i)
		if i < 3 {
			b = b.Insert(i, i)
		}
	}

	c := a.Merge(b, func(x, y int) (int, bool) {
		return x, x == y
	})

	if !c.Equal(a, intEq) {
		t.Fatalf("Equality or Merge is buggy. %v should be equal to %v", c, a)
	}

	if c.root != a.root {
		// Since `a` is a superset of `b`, we should be able to retain the
		// identity of the root.
		t.Errorf("Expected %p to be %p", c.root, a.root)
	}
}

func TestIntersect(t *testing.T) {
	hit, miss := mkTest[int](t)
	for _, hasher := range []immutable.Hasher[int]{intHasher, badHasher{}} {
		a := NewTree[int, int](hasher).Insert(0, 5).Insert(1, 1).Insert(2, 7)
		b := NewTree[int, int](hasher).Insert(1, 3).Insert(2, 2).Insert(3, 3)

		c := a.Intersect(b, min)
		miss(c, 0)
		miss(c, 3)
		hit(c, 1, 1)
		hit(c, 2, 2)
		if sz := c.Size(); sz != 2 {
			t.Error("Wrong size:", sz)
		}
	}
}

func TestForAll(t *testing.T) {
	tree := NewTree[int, int](intHasher)
	for i := 0; i < 10; i++ {
		tree = tree.Insert(i, i*2)
	}

	if !tree.ForAll(func(k, v int) bool { return v == 2*k }) {
		t.Error("predicate should hold for every binding")
	}

	visited := 0
	if tree.ForAll(func(k, v int) bool {
		visited++
		return false
	}) {
		t.Error("predicate should not hold")
	}
	if visited != 1 {
		t.Errorf("ForAll should stop at the first failure, visited %d bindings", visited)
	}
}

func TestRemove(t *testing.T) {
	hit, miss := mkTest[uint32](t)
	const N, NRemove = 100, 20

	for iter := 0; iter < 50; iter++ {
		tree := NewTree[uint32, int](uint32Hasher)

		seen := map[uint32]bool{}
		var keys []uint32
		for len(keys) < N {
			k := rand.Uint32()
			if seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
			tree = tree.Insert(k, int(k%1000))
		}

		removed := keys[:NRemove]
		for _, k := range removed {
			tree = tree.Remove(k)
		}

		if sz := tree.Size(); sz != N-NRemove {
			t.Error("Expected sz to be", N-NRemove, "was", sz)
		}

		for _, k := range removed {
			miss(tree, k)
		}

		for _, k := range keys[NRemove:] {
			hit(tree, k, int(k%1000))
		}
	}
}

func TestRemoveMissingKeepsIdentity(t *testing.T) {
	a := NewTree[int, int](intHasher).Insert(1, 1).Insert(2, 2)
	if b := a.Remove(3); b.root != a.root {
		t.Error("removing an absent key should not rebuild the tree")
	}
}
