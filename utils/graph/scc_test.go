package graph

import "testing"

func TestSCC(t *testing.T) {
	scc := _sampleGraph.SCC([]int{0})

	same := func(a, b int) bool {
		ca, _ := scc.ComponentOf(a)
		cb, _ := scc.ComponentOf(b)
		return ca == cb
	}

	for _, pair := range [][2]int{{0, 1}, {1, 4}, {5, 6}, {2, 3}, {3, 7}} {
		if !same(pair[0], pair[1]) {
			t.Errorf("%d and %d should share a component", pair[0], pair[1])
		}
	}
	for _, pair := range [][2]int{{0, 2}, {5, 7}, {10, 11}} {
		if same(pair[0], pair[1]) {
			t.Errorf("%d and %d should not share a component", pair[0], pair[1])
		}
	}

	if _, found := scc.ComponentOf(42); found {
		t.Error("unreachable node should not have a component")
	}
}

func TestSCCComponentOrder(t *testing.T) {
	scc := _sampleGraph.SCC([]int{0})
	cg := scc.ToGraph()

	for i := range scc.Components {
		for _, j := range cg.Edges(i) {
			if j > i {
				t.Errorf("component %d has an edge to later component %d", i, j)
			}
		}
	}
}

func TestSCCRecursive(t *testing.T) {
	scc := _sampleGraph.SCC([]int{0})
	c8, _ := scc.ComponentOf(8)
	c5, _ := scc.ComponentOf(5)
	if scc.IsRecursive(c8) {
		t.Error("8 is not recursive")
	}
	if !scc.IsRecursive(c5) {
		t.Error("5 <-> 6 is recursive")
	}

	self := OfHashable(func(i int) []int { return []int{i} })
	s := self.SCC([]int{1})
	if !s.IsRecursive(0) {
		t.Error("self loop should be recursive")
	}
}

func TestBottomUp(t *testing.T) {
	scc := _sampleGraph.SCC([]int{0})
	pos := map[int]int{}
	for i, n := range scc.BottomUp() {
		pos[n] = i
	}

	for from, tos := range edges {
		for _, to := range tos {
			if !scc.Original.BFS(to, func(n int) bool { return n == from }) && pos[to] > pos[from] {
				t.Errorf("%d should be listed before %d", to, from)
			}
		}
	}
}
