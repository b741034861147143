package pq

import "testing"

func TestPriorityQueueOrder(t *testing.T) {
	q := Empty(func(a, b int) bool { return a < b })
	for _, x := range []int{5, 3, 8, 1, 3, 5} {
		q.Add(x)
	}

	if q.Len() != 4 {
		t.Fatalf("duplicates should be ignored, got %d elements", q.Len())
	}

	expected := []int{1, 3, 5, 8}
	for _, e := range expected {
		if q.IsEmpty() {
			t.Fatal("queue drained too early")
		}
		if x := q.GetNext(); x != e {
			t.Errorf("GetNext() = %d, expected %d", x, e)
		}
	}

	if !q.IsEmpty() {
		t.Error("queue should be empty")
	}
}

func TestPriorityQueueReAdd(t *testing.T) {
	q := Empty(func(a, b string) bool { return a < b })
	q.Add("b")
	if !q.Contains("b") {
		t.Error("b should be queued")
	}
	q.GetNext()
	if q.Contains("b") {
		t.Error("b should no longer be queued")
	}
	q.Add("b")
	if q.Len() != 1 {
		t.Error("a popped element can be queued again")
	}
}
