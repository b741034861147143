package summary

import (
	"fmt"

	L "github.com/cs-au-dk/fixpoint/analysis/lattice"
)

// Binding maps the callee-side names of a summary (formals and the return
// variable) to caller-side expressions. Callee names without a binding are
// local to the callee.
type Binding[V comparable, A any] struct {
	m map[V]A
}

// Bind pairs formals with actuals positionally. Actuals beyond the formals
// (variadic spill) and formals without an actual are left unbound.
func Bind[V comparable, A any](formals []V, actuals []A) Binding[V, A] {
	b := Binding[V, A]{m: make(map[V]A, len(formals)+1)}
	for i, f := range formals {
		if i >= len(actuals) {
			break
		}
		b.m[f] = actuals[i]
	}
	return b
}

// WithReturn binds the callee's return variable ret to the caller's
// expression to. b is unchanged.
func (b Binding[V, A]) WithReturn(ret V, to A) Binding[V, A] {
	m := make(map[V]A, len(b.m)+1)
	for k, v := range b.m {
		m[k] = v
	}
	m[ret] = to
	return Binding[V, A]{m}
}

// Lookup retrieves the caller-side expression of v.
func (b Binding[V, A]) Lookup(v V) (A, bool) {
	a, found := b.m[v]
	return a, found
}

func (b Binding[V, A]) Len() int {
	return len(b.m)
}

func (b Binding[V, A]) String() string {
	return fmt.Sprint(b.m)
}

// Substitute maps every fact over a callee name onto the caller. Facts whose
// name is unbound are dropped.
func Substitute[V comparable, A any, X any](b Binding[V, A], facts []X, name func(X) V, rename func(X, A) X) []X {
	res := make([]X, 0, len(facts))
	for _, x := range facts {
		if a, found := b.Lookup(name(x)); found {
			res = append(res, rename(x, a))
		}
	}
	return res
}

// SubstituteMap maps a summary over callee names onto caller expressions.
// Bindings of unbound names are dropped. When several callee names map to the
// same caller expression their values are joined.
func SubstituteMap[V comparable, A, X any](b Binding[V, A], m L.Map[V, X], into L.MapLattice[A, X]) L.Map[A, X] {
	res := into.Bot()
	m.ForEach(func(v V, x X) {
		if a, found := b.Lookup(v); found {
			res = into.WeakUpdate(res, a, x)
		}
	})
	return res
}

// SubstituteSet maps a set of callee names onto caller expressions, dropping
// unbound names. ⊤ is mapped to ⊤ of into.
func SubstituteSet[V comparable, A any](b Binding[V, A], s L.Set[V], into L.Topped[L.Set[A]]) L.Set[A] {
	if s.IsTop() {
		return into.Top()
	}

	res := into.Bot()
	s.ForEach(func(v V) {
		if a, found := b.Lookup(v); found {
			res = res.Add(a)
		}
	})
	return res
}
