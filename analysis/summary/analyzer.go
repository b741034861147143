package summary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync/atomic"

	"github.com/cs-au-dk/fixpoint/analysis/absint"
	"github.com/cs-au-dk/fixpoint/analysis/cfg"
	L "github.com/cs-au-dk/fixpoint/analysis/lattice"
)

// Program resolves procedures to their bodies.
type Program[K comparable, I any] interface {
	// Body retrieves the control-flow graph of k, or false for external and
	// otherwise body-less procedures.
	Body(k K) (cfg.View[I], bool)
}

// ProgramFunc adapts a function to the Program interface.
type ProgramFunc[K comparable, I any] func(K) (cfg.View[I], bool)

func (f ProgramFunc[K, I]) Body(k K) (cfg.View[I], bool) { return f(k) }

// Ctxt is the context threaded through every transfer function call of a
// summary computation.
type Ctxt[K comparable, I, E, S any] struct {
	context.Context
	Analyzer *Analyzer[K, I, E, S]
	// Stack includes Proc.
	Stack *Stack[K]
	// Proc is the procedure under analysis.
	Proc K
}

// ReadSummary retrieves the summary of callee, computing it on demand.
func (c *Ctxt[K, I, E, S]) ReadSummary(callee K) (S, bool) {
	return c.Analyzer.ReadSummary(c.Context, c.Stack, callee)
}

// Client is what an interprocedural analysis provides to the summary layer.
type Client[K comparable, I, E, S any] struct {
	Lattice L.Lattice[E]
	Exec    absint.Exec[I, E, *Ctxt[K, I, E, S]]
	// Init computes the state before the start of k.
	Init func(k K) E
	// Summarize extracts the summary of k from its converged invariants.
	Summarize func(k K, res *absint.InvariantMap[E]) S
	// NoBody optionally models procedures without a body.
	NoBody func(k K) (S, bool)
	// View optionally transforms procedure bodies before analysis, e.g.
	// with cfg.Backward.
	View   func(cfg.View[I]) cfg.View[I]
	Config absint.Config
}

// NoSummaryError explains why a summary is unavailable.
type NoSummaryError struct {
	Absence
}

func (e NoSummaryError) Error() string {
	return "no summary: " + e.Absence.String()
}

func (e NoSummaryError) Unwrap() error {
	return e.Err
}

// PanicError carries a panic raised while computing a summary.
type PanicError struct {
	Value any
	Stack []byte
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Analyzer computes summaries on demand and stores them in a shared cache.
// It is safe for concurrent use. Concurrent requests for the same uncached
// summary compute it redundantly and the first result written wins.
type Analyzer[K comparable, I, E, S any] struct {
	program Program[K, I]
	client  Client[K, I, E, S]
	cache   *Cache[K, S]
	logger  *log.Logger

	runs       atomic.Int64
	recursions atomic.Int64
}

// NewAnalyzer creates an analyzer for program whose summaries are stored in
// cache.
func NewAnalyzer[K comparable, I, E, S any](
	program Program[K, I],
	client Client[K, I, E, S],
	cache *Cache[K, S],
) *Analyzer[K, I, E, S] {
	return &Analyzer[K, I, E, S]{
		program: program,
		client:  client,
		cache:   cache,
	}
}

// SetLogger directs a line per computed or missing summary to l.
func (a *Analyzer[K, I, E, S]) SetLogger(l *log.Logger) {
	a.logger = l
}

func (a *Analyzer[K, I, E, S]) Cache() *Cache[K, S] {
	return a.cache
}

// Runs is the number of solver runs started by the analyzer.
func (a *Analyzer[K, I, E, S]) Runs() int {
	return int(a.runs.Load())
}

// Recursions is the number of summary reads that hit an in-flight procedure.
func (a *Analyzer[K, I, E, S]) Recursions() int {
	return int(a.recursions.Load())
}

// ReadSummary is Summary without the explanation.
func (a *Analyzer[K, I, E, S]) ReadSummary(ctx context.Context, stack *Stack[K], k K) (S, bool) {
	s, err := a.Summary(ctx, stack, k)
	return s, err == nil
}

// Summary retrieves the summary of k, analyzing k if necessary. stack holds
// the procedures in flight on the current call chain. A missing summary is
// reported with a NoSummaryError.
//
// Failures to compute a summary are recorded in the cache, except for
// recursive reads and context errors of nested reads, which depend on the
// caller rather than on k.
func (a *Analyzer[K, I, E, S]) Summary(ctx context.Context, stack *Stack[K], k K) (S, error) {
	var none S
	if s, found := a.cache.Get(k); found {
		return s, nil
	}
	if abs, found := a.cache.Absent(k); found {
		return none, NoSummaryError{abs}
	}

	if stack.Contains(k) {
		a.recursions.Add(1)
		return none, NoSummaryError{Absence{Reason: ReasonRecursion}}
	}

	body, found := a.program.Body(k)
	if !found {
		if a.client.NoBody != nil {
			if s, ok := a.client.NoBody(k); ok {
				return a.store(k, s), nil
			}
		}
		abs := Absence{Reason: ReasonNoBody}
		a.cache.MarkAbsent(k, abs)
		return none, NoSummaryError{abs}
	}

	s, err := a.compute(ctx, stack, k, body)
	if err != nil {
		abs := absenceOf(err)
		if ctx.Err() == nil || stack.Len() == 0 {
			a.cache.MarkAbsent(k, abs)
		}
		a.logf("No summary for %v: %s", k, abs)
		return none, NoSummaryError{abs}
	}

	return a.store(k, s), nil
}

// store caches s and returns the summary that won.
func (a *Analyzer[K, I, E, S]) store(k K, s S) S {
	if !a.cache.Put(k, s) {
		if winner, found := a.cache.Get(k); found {
			return winner
		}
	}
	return s
}

// Analyze runs the client on k without consulting or updating the cache
// entry of k. Summaries of callees are read as usual.
func (a *Analyzer[K, I, E, S]) Analyze(ctx context.Context, stack *Stack[K], k K) (*absint.InvariantMap[E], error) {
	body, found := a.program.Body(k)
	if !found {
		return nil, NoSummaryError{Absence{Reason: ReasonNoBody}}
	}
	return a.run(ctx, stack, k, body)
}

func (a *Analyzer[K, I, E, S]) run(ctx context.Context, stack *Stack[K], k K, body cfg.View[I]) (*absint.InvariantMap[E], error) {
	if a.client.View != nil {
		body = a.client.View(body)
	}

	c := &Ctxt[K, I, E, S]{
		Context:  ctx,
		Analyzer: a,
		Stack:    stack.Push(k),
		Proc:     k,
	}

	a.runs.Add(1)
	return absint.Run(ctx, body, absint.Analysis[I, E, *Ctxt[K, I, E, S]]{
		Lattice: a.client.Lattice,
		Exec:    a.client.Exec,
		Config:  a.client.Config,
	}, a.client.Init(k), c)
}

// compute runs the client on k and extracts its summary. Client panics are
// returned as a PanicError.
func (a *Analyzer[K, I, E, S]) compute(ctx context.Context, stack *Stack[K], k K, body cfg.View[I]) (s S, err error) {
	a.cache.begin(k)
	defer a.cache.end(k)

	defer func() {
		if r := recover(); r != nil {
			err = PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	res, err := a.run(ctx, stack, k, body)
	if err != nil {
		return s, err
	}

	a.logf("Computed summary of %v in %d steps", k, res.Steps())
	return a.client.Summarize(k, res), nil
}

func (a *Analyzer[K, I, E, S]) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}

// absenceOf classifies the error of a failed summary computation.
func absenceOf(err error) Absence {
	var pe PanicError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Absence{ReasonTimeout, err}
	case errors.Is(err, context.Canceled):
		return Absence{ReasonCanceled, err}
	case errors.Is(err, absint.ErrIterationBound):
		return Absence{ReasonIterationBound, err}
	case errors.As(err, &pe):
		return Absence{ReasonPanic, err}
	}
	return Absence{ReasonFailed, err}
}

// ReasonOf extracts the reason from an error returned by Summary.
func ReasonOf(err error) (Reason, bool) {
	var nse NoSummaryError
	if errors.As(err, &nse) {
		return nse.Reason, true
	}
	return "", false
}
