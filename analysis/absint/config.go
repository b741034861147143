package absint

import (
	"errors"
	"log"

	"github.com/cs-au-dk/fixpoint/analysis/cfg"
	L "github.com/cs-au-dk/fixpoint/analysis/lattice"
)

// DefaultWidenThreshold is the number of updates of a node's post-state that
// are joined before the solver switches to widening.
const DefaultWidenThreshold = 2

var (
	// ErrIterationBound is returned when a run exceeds Config.MaxIterations.
	ErrIterationBound = errors.New("iteration bound exceeded")
)

// Exec is a transfer function. It must be total over the instructions the
// front end produces. c is read-only context threaded through every call.
type Exec[I, E, C any] func(c C, state E, n cfg.Node, instr I) E

// Config tunes a solver run. The zero value is usable.
type Config struct {
	// WidenThreshold is the number of updates of a node that are joined.
	// Later updates widen. 0 selects DefaultWidenThreshold.
	WidenThreshold int
	// MaxIterations bounds the number of node visits. 0 means unbounded.
	MaxIterations int
	// Exceptional propagates states along exceptional edges.
	Exceptional bool
	// StopAtExnSink prevents states from flowing out of ExnSink nodes.
	StopAtExnSink bool
	// Logger receives a line per visited node, if set.
	Logger *log.Logger
}

func (c Config) widenThreshold() int {
	if c.WidenThreshold <= 0 {
		return DefaultWidenThreshold
	}
	return c.WidenThreshold
}

// Analysis bundles what a client provides to the solver.
type Analysis[I, E, C any] struct {
	Lattice L.Lattice[E]
	Exec    Exec[I, E, C]
	Config  Config
}
