// Package liveness computes the SSA values of a function that are live at the
// boundaries of its basic blocks. It runs the solver backward over the
// function's control flow graph.
package liveness

import (
	"context"
	"slices"
	"sort"
	"strings"

	"golang.org/x/tools/go/ssa"

	"github.com/cs-au-dk/fixpoint/analysis/absint"
	"github.com/cs-au-dk/fixpoint/analysis/cfg"
	L "github.com/cs-au-dk/fixpoint/analysis/lattice"
	"github.com/cs-au-dk/fixpoint/analysis/ssaproc"
	"github.com/cs-au-dk/fixpoint/utils"
	i "github.com/cs-au-dk/fixpoint/utils/indenter"
)

// State is 𝓛(℘(Values)): ⊥ until a node is known to reach the exit.
type State = L.Lifted[L.Set[ssa.Value]]

var (
	values  = L.InfinitePowerset[ssa.Value](utils.PointerHasher[ssa.Value]{}, "Values")
	Lattice = L.Lift[L.Set[ssa.Value]](values)
)

// tracked checks whether v is a local of its function. Constants, globals
// and functions are never live.
func tracked(v ssa.Value) bool {
	switch v.(type) {
	case *ssa.Parameter, *ssa.FreeVar:
		return true
	case ssa.Instruction:
		return true
	}
	return false
}

// Exec is the backward transfer function: the value defined by an
// instruction dies and its operands become live.
//
// The operands of a φ-node are used at the end of the corresponding
// predecessor, so they become live at the predecessor's jump instead.
func Exec(_ struct{}, s State, _ cfg.Node, instr ssa.Instruction) State {
	live, ok := s.Get()
	if !ok {
		return s
	}

	use := func(v ssa.Value) {
		if v != nil && tracked(v) {
			live = live.Add(v)
		}
	}

	if v, ok := instr.(ssa.Value); ok {
		live = live.Remove(v)
	}

	switch instr.(type) {
	case *ssa.Phi:
		return L.Reachable(live)
	case *ssa.Jump, *ssa.If:
		blk := instr.Block()
		for _, succ := range blk.Succs {
			edge := slices.Index(succ.Preds, blk)
			if edge < 0 {
				continue
			}
			for _, in := range succ.Instrs {
				phi, ok := in.(*ssa.Phi)
				if !ok {
					break
				}
				use(phi.Edges[edge])
			}
		}
	}

	for _, op := range instr.Operands(nil) {
		use(*op)
	}
	return L.Reachable(live)
}

// Result holds the live values at the block boundaries of a function.
type Result struct {
	fn  *ssa.Function
	res *absint.InvariantMap[State]
}

// Analyze computes the liveness of the values of fn. Values are live at the
// exit if they flow into a panic, so exceptional edges are followed.
func Analyze(ctx context.Context, fn *ssa.Function, config absint.Config) (*Result, error) {
	g, err := ssaproc.Build(fn)
	if err != nil {
		return nil, err
	}

	config.Exceptional = true
	res, err := absint.Run[ssa.Instruction](ctx, cfg.Backward[ssa.Instruction](g),
		absint.Analysis[ssa.Instruction, State, struct{}]{
			Lattice: Lattice,
			Exec:    Exec,
			Config:  config,
		}, L.Reachable(values.Bot()), struct{}{})
	if err != nil {
		return nil, err
	}

	return &Result{fn, res}, nil
}

// get reads the state at the end of blk when out is set. The solver runs
// backward, so that is the Pre state of the block node.
func (r *Result) get(blk *ssa.BasicBlock, out bool) []ssa.Value {
	inv, found := r.res.Get(cfg.BlockNode(ssaproc.BlockOf(blk)))
	if !found {
		return nil
	}

	state := inv.Post
	if out {
		state = inv.Pre
	}
	live, _ := state.Get()

	res := live.Elements()
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name() < res[j].Name()
	})
	return res
}

// LiveIn lists the values live before blk, sorted by name.
func (r *Result) LiveIn(blk *ssa.BasicBlock) []ssa.Value {
	return r.get(blk, false)
}

// LiveOut lists the values live after blk, sorted by name.
func (r *Result) LiveOut(blk *ssa.BasicBlock) []ssa.Value {
	return r.get(blk, true)
}

// IsLiveOut checks whether v is live after blk.
func (r *Result) IsLiveOut(blk *ssa.BasicBlock, v ssa.Value) bool {
	return slices.Contains(r.LiveOut(blk), v)
}

// IsLiveIn checks whether v is live before blk.
func (r *Result) IsLiveIn(blk *ssa.BasicBlock, v ssa.Value) bool {
	return slices.Contains(r.LiveIn(blk), v)
}

// Steps is the number of node visits of the solver.
func (r *Result) Steps() int {
	return r.res.Steps()
}

func names(vs []ssa.Value) string {
	if len(vs) == 0 {
		return "∅"
	}
	strs := make([]string, len(vs))
	for i, v := range vs {
		strs[i] = v.Name()
	}
	return "{ " + strings.Join(strs, ", ") + " }"
}

func (r *Result) String() string {
	blocks := make([]func() string, 0, len(r.fn.Blocks))
	for _, blk := range r.fn.Blocks {
		blk := blk
		blocks = append(blocks, func() string {
			return i.Indenter().Start("block "+blk.String()+" {").NestStrings(
				"in:  "+names(r.LiveIn(blk)),
				"out: "+names(r.LiveOut(blk)),
			).End("}")
		})
	}
	return i.Indenter().Start("Live values of " + r.fn.Name() + ":").NestThunked(blocks...).End("")
}
