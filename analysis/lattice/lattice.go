// Package lattice defines the abstract domain contract consumed by the
// fixpoint solver, together with combinators that build richer domains out
// of simpler ones.
//
// Elements are plain immutable Go values. All the structure lives in the
// lattice value, which is passed around explicitly. Operations never mutate
// their arguments.
package lattice

import (
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/cs-au-dk/fixpoint/utils"
)

// Lattice is a partially ordered set of abstract values of type E with a
// least element, an upper bound operation and a widening operation.
type Lattice[E any] interface {
	// Bot returns ⊥, the "no information yet" element.
	Bot() E
	// Leq computes a ⊑ b.
	Leq(a, b E) bool
	// Eq computes a = b. Must agree with Leq in both directions.
	Eq(a, b E) bool
	// Join computes an upper bound a ⊔ b.
	Join(a, b E) E
	// Widen computes prev ▽ next, an upper bound of prev ⊔ next. Repeated
	// widening along an ascending chain must stabilize. iters is the number
	// of times the caller has already updated the value.
	Widen(prev, next E, iters int) E
	// Show prints an element.
	Show(e E) string
	// String prints the lattice itself.
	String() string
}

// Topped is implemented by lattices with an explicit greatest element.
type Topped[E any] interface {
	Lattice[E]
	Top() E
}

var (
	ErrNotInUniverse = errors.New("element not in powerset universe")
	ErrNoTop         = errors.New("lattice has no greatest element")
)

var colorize = struct {
	Lattice    func(...interface{}) string
	LatticeCon func(...interface{}) string
	Element    func(...interface{}) string
	Const      func(...interface{}) string
	Key        func(...interface{}) string
}{
	Lattice: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiBlue).SprintFunc())(is...)
	},
	LatticeCon: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgMagenta).SprintFunc())(is...)
	},
	Element: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgCyan).SprintFunc())(is...)
	},
	Const: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiWhite).SprintFunc())(is...)
	},
	Key: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgYellow).SprintFunc())(is...)
	},
}

// JoinAll folds Join over the given elements, starting from ⊥.
func JoinAll[E any](lat Lattice[E], es ...E) E {
	res := lat.Bot()
	for _, e := range es {
		res = lat.Join(res, e)
	}
	return res
}

// TopOf returns ⊤ of lat, or an error if lat has no explicit greatest element.
func TopOf[E any](lat Lattice[E]) (E, error) {
	if t, ok := lat.(Topped[E]); ok {
		return t.Top(), nil
	}
	var zero E
	return zero, fmt.Errorf("%s: %w", lat, ErrNoTop)
}

// eqByLeq derives equality from the order.
func eqByLeq[E any](lat Lattice[E], a, b E) bool {
	return lat.Leq(a, b) && lat.Leq(b, a)
}
