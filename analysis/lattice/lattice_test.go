package lattice

import (
	"errors"
	"testing"

	"github.com/cs-au-dk/fixpoint/utils"
)

func init() {
	utils.Opts().SetNoColorize(true)
}

// checkLaws verifies the lattice laws on every pair of the sample elements.
func checkLaws[E any](t *testing.T, lat Lattice[E], elems []E) {
	t.Helper()

	bot := lat.Bot()
	for _, a := range elems {
		if !lat.Leq(bot, a) {
			t.Errorf("⊥ ⋢ %s in %s", lat.Show(a), lat)
		}
		if !lat.Eq(lat.Join(a, a), a) {
			t.Errorf("%s ⊔ %s ≠ %s", lat.Show(a), lat.Show(a), lat.Show(a))
		}

		for _, b := range elems {
			j := lat.Join(a, b)
			if !lat.Leq(a, j) || !lat.Leq(b, j) {
				t.Errorf("%s ⊔ %s = %s is not an upper bound", lat.Show(a), lat.Show(b), lat.Show(j))
			}
			if lat.Eq(a, b) != (lat.Leq(a, b) && lat.Leq(b, a)) {
				t.Errorf("Eq disagrees with Leq on %s and %s", lat.Show(a), lat.Show(b))
			}
			if lat.Leq(a, b) && !lat.Eq(lat.Join(a, lat.Join(a, b)), lat.Join(a, b)) {
				t.Errorf("%s ⊔ (%s ⊔ %s) does not absorb", lat.Show(a), lat.Show(a), lat.Show(b))
			}

			for k := 0; k < 4; k++ {
				if w := lat.Widen(a, b, k); !lat.Leq(j, w) {
					t.Errorf("%s ⊔ %s = %s ⋢ %s ▽ %s = %s (k = %d)",
						lat.Show(a), lat.Show(b), lat.Show(j),
						lat.Show(a), lat.Show(b), lat.Show(w), k)
				}
			}
		}
	}
}

func TestBoolLattices(t *testing.T) {
	tests := []struct {
		lat            BoolLattice
		a, b, expected bool
	}{
		{BoolOr(), false, false, false},
		{BoolOr(), false, true, true},
		{BoolOr(), true, false, true},
		{BoolAnd(), true, true, true},
		{BoolAnd(), true, false, false},
		{BoolAnd(), false, true, false},
	}

	for _, test := range tests {
		if res := test.lat.Join(test.a, test.b); res != test.expected {
			t.Errorf("%v ⊔ %v = %v in %s, expected %v", test.a, test.b, res, test.lat, test.expected)
		}
	}

	if !BoolAnd().Leq(true, false) || BoolAnd().Leq(false, true) {
		t.Error("true ⊑ false should hold in 𝔹∧ and not the other way around")
	}

	checkLaws[bool](t, BoolOr(), []bool{false, true})
	checkLaws[bool](t, BoolAnd(), []bool{false, true})
}

func TestLift(t *testing.T) {
	lat := Lift[bool](BoolOr())
	unreach := lat.Bot()
	f, tr := Reachable(false), Reachable(true)

	if !lat.Leq(unreach, f) || lat.Leq(f, unreach) {
		t.Error("unreachable should be strictly below every base element")
	}
	if res := lat.Join(unreach, tr); !lat.Eq(res, tr) {
		t.Errorf("⊥ ⊔ true = %s", lat.Show(res))
	}
	if res := lat.Widen(f, unreach, 3); !lat.Eq(res, f) {
		t.Errorf("false ▽ ⊥ = %s", lat.Show(res))
	}
	if v, ok := tr.Get(); !ok || !v {
		t.Error("Get should return the wrapped base element")
	}
	if lat.Show(unreach) != "⊥" {
		t.Errorf("unexpected rendering of ⊥: %q", lat.Show(unreach))
	}

	checkLaws[Lifted[bool]](t, lat, []Lifted[bool]{unreach, f, tr})
}

func TestDrop(t *testing.T) {
	lat := Drop[FlatElement[int]](Flat[int]("ℤ"))
	top := lat.Top()
	one := Known(Const(1))

	if !lat.Leq(one, top) || lat.Leq(top, one) {
		t.Error("⊤ should be strictly above every base element")
	}
	if res := lat.Join(one, top); !res.IsTop() {
		t.Errorf("1 ⊔ ⊤ = %s", lat.Show(res))
	}

	checkLaws[Dropped[FlatElement[int]]](t, lat, []Dropped[FlatElement[int]]{
		lat.Bot(), one, Known(Const(2)), Known(Flat[int]("ℤ").Top()), top,
	})
}

func TestLiftTopRequiresBaseTop(t *testing.T) {
	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, ErrNoTop) {
			t.Errorf("expected ErrNoTop panic, got %v", err)
		}
	}()

	// Map lattices have no greatest element.
	Lift[Map[int, bool]](MapOf[int, bool](utils.IntHasher(), BoolOr())).Top()
}

func TestProduct(t *testing.T) {
	lat := Product[bool, int](BoolOr(), Bounded(3))

	a, b := MakePair(true, 1), MakePair(false, 2)
	res := lat.Join(a, b)
	if !lat.Eq(res, MakePair(true, 2)) {
		t.Errorf("%s ⊔ %s = %s", lat.Show(a), lat.Show(b), lat.Show(res))
	}
	if lat.Leq(a, b) || lat.Leq(b, a) {
		t.Error("componentwise order should leave a and b incomparable")
	}
	if w := lat.Widen(MakePair(false, 1), MakePair(false, 2), 5); w.Second != 3 {
		t.Errorf("widening should saturate the counter, got %s", lat.Show(w))
	}
	if s := lat.Show(a); s != "⟨true, 1⟩" {
		t.Errorf("unexpected rendering %q", s)
	}

	checkLaws[Pair[bool, int]](t, lat, []Pair[bool, int]{
		lat.Bot(), a, b, MakePair(true, 3), MakePair(false, 3),
	})
}

func TestPowerset(t *testing.T) {
	lat := Powerset(utils.IntHasher(), 0, 1, 2, 3)

	a, b := lat.Make(0, 1), lat.Make(1, 2)
	res := lat.Join(a, b)
	if !lat.Eq(res, lat.Make(0, 1, 2)) {
		t.Errorf("%s ⊔ %s = %s", a, b, res)
	}
	if !lat.Eq(lat.Widen(a, b, 10), res) {
		t.Error("finite powerset widening should be join")
	}
	if s := res.String(); s != "{ 0, 1, 2 }" {
		t.Errorf("unexpected rendering %q", s)
	}
	if s := lat.Bot().String(); s != "∅" {
		t.Errorf("unexpected rendering of ∅: %q", s)
	}
	if !lat.Eq(lat.Top(), lat.Make(3, 2, 1, 0)) {
		t.Error("⊤ should be the universe")
	}

	checkLaws[Set[int]](t, lat, []Set[int]{
		lat.Bot(), a, b, res, lat.Make(3), lat.Top(),
	})
}

func TestPowersetOutsideUniverse(t *testing.T) {
	lat := Powerset(utils.StringHasher(), "a", "b")
	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, ErrNotInUniverse) {
			t.Errorf("expected ErrNotInUniverse panic, got %v", err)
		}
	}()

	lat.Make("a", "c")
}

func TestInfinitePowerset(t *testing.T) {
	lat := InfinitePowerset(utils.IntHasher(), "ℤ")

	a, b := lat.Make(1), lat.Make(1, 2)
	if w := lat.Widen(a, b, 0); !w.IsTop() {
		t.Errorf("growing set should widen to ⊤, got %s", w)
	}
	if w := lat.Widen(b, a, 0); !lat.Eq(w, b) {
		t.Errorf("stable set should not widen, got %s", w)
	}
	if !lat.Top().Contains(42) {
		t.Error("⊤ contains everything")
	}
	if lat.Top().Add(3).Size() != -1 {
		t.Error("adding to ⊤ should leave it ⊤")
	}

	checkLaws[Set[int]](t, lat, []Set[int]{
		lat.Bot(), a, b, lat.Make(7), lat.Top(),
	})
}

func TestMap(t *testing.T) {
	lat := MapOf[string, int](utils.StringHasher(), Bounded(3))

	a := lat.Bot().Update("x", 1)
	b := lat.Bot().Update("y", 2)

	if v := lat.Get(a, "y"); v != 0 {
		t.Errorf("missing key should be ⊥, got %d", v)
	}
	if !lat.Leq(lat.Bot(), a) || lat.Leq(a, b) {
		t.Error("unexpected order between maps")
	}
	if !lat.Leq(a.Update("y", 0), a) {
		t.Error("binding ⊥ explicitly should not change the order")
	}

	j := lat.Join(a, b)
	if lat.Get(j, "x") != 1 || lat.Get(j, "y") != 2 {
		t.Errorf("%s ⊔ %s = %s", lat.Show(a), lat.Show(b), lat.Show(j))
	}

	w := lat.Widen(a, a.Update("x", 2), 4)
	if lat.Get(w, "x") != 3 {
		t.Errorf("pointwise widening should saturate x, got %s", lat.Show(w))
	}
	w = lat.Widen(a, b, 4)
	if lat.Get(w, "x") != 1 || lat.Get(w, "y") != 3 {
		t.Errorf("keys only bound in next widen against ⊥, got %s", lat.Show(w))
	}

	if s := lat.Show(j); s != "[\n  x ↦ 1\n  y ↦ 2\n]" {
		t.Errorf("unexpected rendering %q", s)
	}

	checkLaws[Map[string, int]](t, lat, []Map[string, int]{
		lat.Bot(), a, b, j, a.Update("x", 3),
	})
}

func TestMapJoinSharedKeys(t *testing.T) {
	lat := MapOf[string, int](utils.StringHasher(), Bounded(3))
	bot := lat.Bot()

	tests := []struct {
		a, b     Map[string, int]
		expected map[string]int
	}{
		{bot.Update("x", 1), bot.Update("x", 3), map[string]int{"x": 3}},
		{bot.Update("x", 3), bot.Update("x", 1), map[string]int{"x": 3}},
		{bot.Update("x", 2), bot.Update("x", 2), map[string]int{"x": 2}},
		{bot.Update("x", 1).Update("y", 2), bot.Update("x", 2), map[string]int{"x": 2, "y": 2}},
		{bot.Update("x", 2), bot.Update("x", 1).Update("y", 3), map[string]int{"x": 2, "y": 3}},
	}

	for _, test := range tests {
		j := lat.Join(test.a, test.b)
		for k, v := range test.expected {
			if got := lat.Get(j, k); got != v {
				t.Errorf("%s ⊔ %s = %s, expected %s ↦ %d",
					lat.Show(test.a), lat.Show(test.b), lat.Show(j), k, v)
			}
		}
		if !lat.Eq(j, lat.Join(test.b, test.a)) {
			t.Errorf("join of %s and %s is not commutative", lat.Show(test.a), lat.Show(test.b))
		}
	}
}

func TestWeakUpdate(t *testing.T) {
	lat := MapOf[int, Set[int]](utils.IntHasher(), InfinitePowerset(utils.IntHasher(), "ℤ"))
	m := lat.WeakUpdate(lat.Bot(), 0, SetOf(utils.IntHasher(), 1))
	m = lat.WeakUpdate(m, 0, SetOf(utils.IntHasher(), 2))
	if s := lat.Get(m, 0); s.Size() != 2 {
		t.Errorf("weak update should accumulate, got %s", s)
	}
}

func TestInvertedMap(t *testing.T) {
	lat := InvertedMapOf[string, FlatElement[int]](utils.StringHasher(), Flat[int]("ℤ"))

	top := lat.Top()
	a := lat.Constrain(top, "x", Const(1))
	b := lat.Constrain(lat.Constrain(top, "x", Const(1)), "y", Const(2))

	if _, bound := lat.Get(top, "x"); bound {
		t.Error("⊤ should leave every key unconstrained")
	}
	if !lat.Leq(b, a) || lat.Leq(a, b) {
		t.Error("binding more keys should move down the order")
	}
	if !lat.Leq(lat.Bot(), b) || !lat.Leq(a, top) {
		t.Error("explicit ⊥ and ⊤ are the extremes")
	}

	c := lat.Constrain(top, "x", Const(3))
	j := lat.Join(b, c)
	if v, bound := lat.Get(j, "x"); !bound || !v.IsTop() {
		t.Errorf("disagreeing bindings should join pointwise, got %s", lat.Show(j))
	}
	if _, bound := lat.Get(j, "y"); bound {
		t.Errorf("keys bound on one side only are dropped, got %s", lat.Show(j))
	}

	if !lat.Eq(lat.Join(lat.Bot(), a), a) {
		t.Error("⊥ should be the unit of join")
	}
	if !lat.Constrain(lat.Bot(), "x", Const(1)).IsBot() {
		t.Error("constraining ⊥ should leave it ⊥")
	}

	checkLaws[Map[string, FlatElement[int]]](t, lat, []Map[string, FlatElement[int]]{
		lat.Bot(), top, a, b, c, j,
	})
}

func TestFlat(t *testing.T) {
	lat := Flat[string]("string")
	a, b := Const("a"), Const("b")

	tests := []struct{ a, b, expected FlatElement[string] }{
		{lat.Bot(), a, a},
		{a, lat.Bot(), a},
		{a, a, a},
		{a, b, lat.Top()},
		{lat.Top(), a, lat.Top()},
	}

	for _, test := range tests {
		if res := lat.Join(test.a, test.b); res != test.expected {
			t.Errorf("%s ⊔ %s = %s, expected %s",
				lat.Show(test.a), lat.Show(test.b), lat.Show(res), lat.Show(test.expected))
		}
	}

	if v, ok := a.Value(); !ok || v != "a" {
		t.Error("Value should expose the constant")
	}

	checkLaws[FlatElement[string]](t, lat, []FlatElement[string]{lat.Bot(), a, b, lat.Top()})
}

func TestBounded(t *testing.T) {
	lat := Bounded(3)
	if lat.Inc(2) != 3 || lat.Inc(3) != 3 {
		t.Error("Inc should saturate at the ceiling")
	}
	if lat.Widen(1, 2, 0) != 3 || lat.Widen(2, 1, 0) != 2 {
		t.Error("widening should jump to the ceiling on growth only")
	}
	if s := lat.Show(3); s != "≥3" {
		t.Errorf("unexpected rendering %q", s)
	}

	checkLaws[int](t, lat, []int{0, 1, 2, 3})
}

func TestJoinAll(t *testing.T) {
	lat := Powerset(utils.IntHasher(), 0, 1, 2)
	res := JoinAll[Set[int]](lat, lat.Make(0), lat.Make(2), lat.Bot())
	if !lat.Eq(res, lat.Make(0, 2)) {
		t.Errorf("JoinAll = %s", res)
	}
	if !lat.Eq(JoinAll[Set[int]](lat), lat.Bot()) {
		t.Error("JoinAll of nothing should be ⊥")
	}
}
