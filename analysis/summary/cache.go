// Package summary implements the interprocedural layer: a cache of
// per-procedure summaries shared by concurrent analyses, on-demand analysis
// of callees with an explicit recursion guard, and substitution of callee
// facts onto caller expressions.
package summary

import (
	"fmt"
	"log"
	"sync"

	"github.com/benbjohnson/immutable"
)

// Reason explains why a procedure has no summary.
type Reason string

const (
	ReasonNoBody         Reason = "no-body"
	ReasonTimeout        Reason = "timeout"
	ReasonCanceled       Reason = "canceled"
	ReasonIterationBound Reason = "iteration-bound"
	ReasonPanic          Reason = "panic"
	ReasonFailed         Reason = "failed"
	// Recursive calls have no summary while the callee is in flight. They
	// are never recorded in the cache.
	ReasonRecursion Reason = "recursion"
)

// Absence records why a summary is missing.
type Absence struct {
	Reason Reason
	Err    error
}

func (a Absence) String() string {
	if a.Err != nil {
		return fmt.Sprintf("%s: %v", a.Reason, a.Err)
	}
	return string(a.Reason)
}

// Store is a persistent backing for a cache, consulted on misses.
type Store[K comparable, S any] interface {
	Load(k K) (S, bool, error)
	Save(k K, s S) error
}

// Cache holds the summaries of a batch analysis. Cached summaries are never
// mutated: Put keeps the first summary written for a procedure, and only
// Replace overwrites one.
//
// Summaries and absences live in persistent maps, so snapshots are free.
type Cache[K comparable, S any] struct {
	mu         sync.RWMutex
	summaries  *immutable.Map[K, S]
	absent     *immutable.Map[K, Absence]
	inProgress map[K]int
	store      Store[K, S]
}

// NewCache creates an empty cache. store may be nil.
func NewCache[K comparable, S any](hasher immutable.Hasher[K], store Store[K, S]) *Cache[K, S] {
	return &Cache[K, S]{
		summaries:  immutable.NewMap[K, S](hasher),
		absent:     immutable.NewMap[K, Absence](hasher),
		inProgress: make(map[K]int),
		store:      store,
	}
}

// Get retrieves the summary of k, loading it from the store on a miss.
func (c *Cache[K, S]) Get(k K) (S, bool) {
	c.mu.RLock()
	s, found := c.summaries.Get(k)
	c.mu.RUnlock()
	if found || c.store == nil {
		return s, found
	}

	s, found, err := c.store.Load(k)
	switch {
	case err != nil:
		log.Printf("Loading summary of %v: %v", k, err)
		return s, false
	case !found:
		return s, false
	}

	c.Put(k, s)
	return c.Get(k)
}

// Put caches s as the summary of k unless one is already cached, in which
// case the cached summary is kept. Reports whether s was stored.
func (c *Cache[K, S]) Put(k K, s S) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.summaries.Get(k); found {
		return false
	}
	c.summaries = c.summaries.Set(k, s)
	c.absent = c.absent.Delete(k)
	return true
}

// Replace overwrites the summary of k, e.g. after k was re-analyzed.
func (c *Cache[K, S]) Replace(k K, s S) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.summaries = c.summaries.Set(k, s)
	c.absent = c.absent.Delete(k)
}

// Invalidate forgets everything known about k.
func (c *Cache[K, S]) Invalidate(k K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.summaries = c.summaries.Delete(k)
	c.absent = c.absent.Delete(k)
}

// MarkAbsent records that k has no summary. Cached summaries take priority.
func (c *Cache[K, S]) MarkAbsent(k K, a Absence) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.summaries.Get(k); !found {
		c.absent = c.absent.Set(k, a)
	}
}

// Absent retrieves the recorded reason k has no summary.
func (c *Cache[K, S]) Absent(k K) (Absence, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.absent.Get(k)
}

// IsInProgress checks whether some analysis of k is running.
func (c *Cache[K, S]) IsInProgress(k K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inProgress[k] > 0
}

func (c *Cache[K, S]) begin(k K) {
	c.mu.Lock()
	c.inProgress[k]++
	c.mu.Unlock()
}

func (c *Cache[K, S]) end(k K) {
	c.mu.Lock()
	if c.inProgress[k]--; c.inProgress[k] <= 0 {
		delete(c.inProgress, k)
	}
	c.mu.Unlock()
}

// Snapshot returns the current summaries and absences. Later updates of the
// cache do not affect the returned maps.
func (c *Cache[K, S]) Snapshot() (*immutable.Map[K, S], *immutable.Map[K, Absence]) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.summaries, c.absent
}

// Len is the number of cached summaries.
func (c *Cache[K, S]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.summaries.Len()
}

// Persist saves every cached summary to the store.
func (c *Cache[K, S]) Persist() error {
	if c.store == nil {
		return nil
	}

	summaries, _ := c.Snapshot()
	for it := summaries.Iterator(); !it.Done(); {
		k, s, _ := it.Next()
		if err := c.store.Save(k, s); err != nil {
			return fmt.Errorf("saving summary of %v: %w", k, err)
		}
	}
	return nil
}
