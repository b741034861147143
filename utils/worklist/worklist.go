package worklist

// Worklist is a FIFO queue of pending work items.
type Worklist[T any] struct {
	list []T
	head int
}

// Start worklist execution with provided `starting` element and an iteration
// function. The iteration function exposes the next element and a function with
// which to add more elements to the worklist.
func Start[T any](start T, do func(next T, add func(el T))) {
	StartV([]T{start}, do)
}

// StartV starts worklist execution with a preloaded queue and an iteration
// function. The iteration function exposes the next element and a function with
// which to add more elements to the worklist.
func StartV[T any](start []T, do func(next T, add func(el T))) {
	W := Empty[T]()
	for _, e := range start {
		W.Add(e)
	}

	W.Process(do)
}

func Empty[T any]() Worklist[T] {
	return Worklist[T]{}
}

// GetNext dequeues the oldest element. Returns the zero value when empty.
func (w *Worklist[T]) GetNext() (ret T) {
	if w.IsEmpty() {
		return
	}
	next := w.list[w.head]
	var zero T
	w.list[w.head] = zero
	w.head++
	if w.head == len(w.list) {
		w.list, w.head = w.list[:0], 0
	}
	return next
}

func (w *Worklist[T]) IsEmpty() bool {
	return w.head == len(w.list)
}

func (w *Worklist[T]) Len() int {
	return len(w.list) - w.head
}

func (w *Worklist[T]) Process(do func(next T, add func(element T))) {
	for !w.IsEmpty() {
		do(w.GetNext(), w.Add)
	}
}

func (w *Worklist[T]) Add(el T) {
	w.list = append(w.list, el)
}
