// Package paramflow computes, for every function, which of its parameters may
// flow into its results and whether it may panic. Callees are summarized on
// demand and their summaries are substituted at call sites.
//
// Flows through memory are not tracked: a value loaded from memory only
// depends on the address it was loaded from.
package paramflow

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/tools/go/ssa"

	"github.com/cs-au-dk/fixpoint/analysis/absint"
	"github.com/cs-au-dk/fixpoint/analysis/cfg"
	L "github.com/cs-au-dk/fixpoint/analysis/lattice"
	"github.com/cs-au-dk/fixpoint/analysis/summary"
	"github.com/cs-au-dk/fixpoint/utils"
)

// MaxParams bounds the tracked parameter indices. Parameters at or beyond
// the bound share the last index.
const MaxParams = 32

// Summary of a function.
type Summary struct {
	// Returns lists the indices of the parameters that may flow into a
	// result, in ascending order. The receiver of a method is parameter 0.
	Returns  []int `msgpack:"returns"`
	MayPanic bool  `msgpack:"may_panic"`
}

func (s Summary) String() string {
	strs := make([]string, len(s.Returns))
	for i, p := range s.Returns {
		strs[i] = fmt.Sprint(p)
	}
	str := "returns {" + strings.Join(strs, ", ") + "}"
	if s.MayPanic {
		str += ", may panic"
	}
	return str
}

type (
	// Deps maps values to the parameters they may depend on.
	Deps  = L.Map[ssa.Value, L.Set[int]]
	State = L.Pair[Deps, bool]

	ctxt = *summary.Ctxt[*ssa.Function, ssa.Instruction, State, Summary]
)

var (
	params  = L.Powerset(utils.IntHasher(), universe()...)
	deps    = L.MapOf[ssa.Value, L.Set[int]](utils.PointerHasher[ssa.Value]{}, params)
	values  = L.InfinitePowerset[ssa.Value](utils.PointerHasher[ssa.Value]{}, "Values")
	Lattice = L.Product[Deps, bool](deps, L.BoolOr())
)

func universe() []int {
	res := make([]int, MaxParams)
	for i := range res {
		res[i] = i
	}
	return res
}

func paramIndex(i int) int {
	return min(i, MaxParams-1)
}

// depsOf computes the parameters v may depend on in state s.
func depsOf(s Deps, v ssa.Value) L.Set[int] {
	switch param := v.(type) {
	case *ssa.Parameter:
		for i, p := range param.Parent().Params {
			if p == param {
				return params.Make(paramIndex(i))
			}
		}
	case ssa.Instruction:
		return deps.Get(s, v)
	}
	return params.Bot()
}

func depsOfAll(s Deps, vs []ssa.Value) L.Set[int] {
	res := params.Bot()
	for _, v := range vs {
		res = res.Union(depsOf(s, v))
	}
	return res
}

// Exec is the forward transfer function.
func Exec(c ctxt, s State, _ cfg.Node, instr ssa.Instruction) State {
	switch instr := instr.(type) {
	case *ssa.Panic:
		return s.UpdateSecond(true)
	case *ssa.Call:
		res, panics := call(c, s.First, instr.Common())
		return L.MakePair(s.First.Update(instr, res), s.Second || panics)
	}

	v, ok := instr.(ssa.Value)
	if !ok {
		return s
	}
	var ops []ssa.Value
	for _, op := range instr.Operands(nil) {
		if *op != nil {
			ops = append(ops, *op)
		}
	}
	return s.UpdateFirst(s.First.Update(v, depsOfAll(s.First, ops)))
}

// call computes the dependencies of the result of a call and whether it may
// panic. Calls without a summary depend on all arguments and may panic.
func call(c ctxt, s Deps, common *ssa.CallCommon) (L.Set[int], bool) {
	args := common.Args
	if common.IsInvoke() {
		args = append([]ssa.Value{common.Value}, args...)
	}

	if _, builtin := common.Value.(*ssa.Builtin); builtin {
		return depsOfAll(s, args), false
	}

	callee := common.StaticCallee()
	if callee == nil {
		return depsOfAll(s, args), true
	}
	sum, found := c.ReadSummary(callee)
	if !found {
		return depsOfAll(s, args), true
	}

	// Arguments at or beyond the last index share it, so only the ones
	// before it are bound one to one.
	shared := MaxParams - 1
	formals := make([]int, min(len(args), shared))
	for i := range formals {
		formals[i] = i
	}

	b := summary.Bind(formals, args)
	returns := params.Make(sum.Returns...)
	flowing := summary.SubstituteSet[int, ssa.Value](b, returns, values)
	if returns.Contains(shared) && len(args) > shared {
		for _, arg := range args[shared:] {
			flowing = flowing.Add(arg)
		}
	}
	return depsOfAll(s, flowing.Elements()), sum.MayPanic
}

// Summarize collects the dependencies of the returned values at the exit.
func Summarize(fn *ssa.Function, res *absint.InvariantMap[State]) Summary {
	exit, reachable := res.ExitState()
	if !reachable {
		return Summary{}
	}

	var results []ssa.Value
	for _, blk := range fn.Blocks {
		if ret, ok := blk.Instrs[len(blk.Instrs)-1].(*ssa.Return); ok {
			results = append(results, ret.Results...)
		}
	}

	returns := depsOfAll(exit.First, results).Elements()
	sort.Ints(returns)
	return Summary{Returns: returns, MayPanic: exit.Second}
}

// NoBody summarizes external functions: all parameters may flow into the
// results and the function may panic.
func NoBody(fn *ssa.Function) (Summary, bool) {
	n := fn.Signature.Params().Len()
	if fn.Signature.Recv() != nil {
		n++
	}

	returns := []int{}
	for i := 0; i < n && i < MaxParams; i++ {
		returns = append(returns, i)
	}
	if fn.Signature.Results().Len() == 0 {
		returns = []int{}
	}
	return Summary{Returns: returns, MayPanic: true}, true
}

// Client bundles the analysis for the summary layer.
func Client(config absint.Config) summary.Client[*ssa.Function, ssa.Instruction, State, Summary] {
	config.Exceptional = true
	return summary.Client[*ssa.Function, ssa.Instruction, State, Summary]{
		Lattice:   Lattice,
		Exec:      Exec,
		Init:      func(*ssa.Function) State { return Lattice.Bot() },
		Summarize: Summarize,
		NoBody:    NoBody,
		Config:    config,
	}
}

// Key identifies functions in persistent summary stores.
func Key(fn *ssa.Function) string {
	return fn.String()
}
