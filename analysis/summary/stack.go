package summary

import (
	"fmt"
	"strings"
)

// Stack is the set of procedures whose analysis is in flight on the current
// call chain. It is immutable and passed explicitly; nil is the empty stack.
type Stack[K comparable] struct {
	top  K
	rest *Stack[K]
	len  int
}

// Push returns the stack extended with k. s is unchanged.
func (s *Stack[K]) Push(k K) *Stack[K] {
	return &Stack[K]{top: k, rest: s, len: s.Len() + 1}
}

// Contains checks whether k is in flight.
func (s *Stack[K]) Contains(k K) bool {
	for ; s != nil; s = s.rest {
		if s.top == k {
			return true
		}
	}
	return false
}

// Top retrieves the most recently pushed procedure.
func (s *Stack[K]) Top() (K, bool) {
	if s == nil {
		var k K
		return k, false
	}
	return s.top, true
}

func (s *Stack[K]) Len() int {
	if s == nil {
		return 0
	}
	return s.len
}

// Elements lists the stack from the bottom up.
func (s *Stack[K]) Elements() []K {
	res := make([]K, s.Len())
	for i := len(res) - 1; s != nil; i, s = i-1, s.rest {
		res[i] = s.top
	}
	return res
}

func (s *Stack[K]) String() string {
	strs := make([]string, 0, s.Len())
	for _, k := range s.Elements() {
		strs = append(strs, fmt.Sprint(k))
	}
	return "[" + strings.Join(strs, " → ") + "]"
}
