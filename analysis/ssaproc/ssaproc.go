// Package ssaproc turns SSA functions into procedures that the analysis
// engine can run on.
//
// Every SSA basic block becomes a block of the procedure. Synthetic entry
// and exit blocks surround them, and instructions that may panic get an
// exceptional edge to a catch-all sink. The sink continues at the
// function's recover block, if any, and otherwise at the exit.
package ssaproc

import (
	"errors"
	"fmt"
	"go/token"
	"sort"
	"sync"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/cs-au-dk/fixpoint/analysis/cfg"
)

// ErrNoBody is returned for external functions and functions whose body
// was not built.
var ErrNoBody = errors.New("function has no body")

// Offset of the block of an SSA basic block.
const offset = 2

// BlockOf is the index of the procedure block of an SSA basic block.
func BlockOf(b *ssa.BasicBlock) int {
	return b.Index + offset
}

// Build converts fn into a control flow graph.
func Build(fn *ssa.Function) (*cfg.Graph[ssa.Instruction], error) {
	if len(fn.Blocks) == 0 {
		return nil, fmt.Errorf("%s: %w", fn, ErrNoBody)
	}

	b := cfg.NewBuilder[ssa.Instruction](fn.String())
	for _, blk := range fn.Blocks {
		b.AddBlock(kindOf(blk), posOf(blk, fn.Pos()), blk.Instrs...)
	}

	sink := -1
	exn := func(from int) {
		if sink < 0 {
			sink = b.AddBlock(cfg.ExnSink, fn.Pos())
		}
		b.ExnEdge(from, sink)
	}

	b.Edge(b.Entry(), BlockOf(fn.Blocks[0]))
	for _, blk := range fn.Blocks {
		from := BlockOf(blk)
		for _, succ := range blk.Succs {
			b.Edge(from, BlockOf(succ))
		}

		if MayPanic(blk) {
			exn(from)
		}
		if _, ok := blk.Instrs[len(blk.Instrs)-1].(*ssa.Return); ok {
			b.Edge(from, b.Exit())
		}
	}

	// Recovered panics resume normal execution. Unrecovered ones only reach
	// the exit along exceptional control flow.
	if sink >= 0 {
		if fn.Recover != nil {
			b.Edge(sink, BlockOf(fn.Recover))
		} else {
			b.ExnEdge(sink, b.Exit())
		}
	}

	return b.Build()
}

func kindOf(blk *ssa.BasicBlock) cfg.Kind {
	switch blk.Instrs[len(blk.Instrs)-1].(type) {
	case *ssa.If:
		return cfg.Branch
	}
	return cfg.Stmt
}

func posOf(blk *ssa.BasicBlock, def token.Pos) token.Pos {
	for _, i := range blk.Instrs {
		if pos := i.Pos(); pos.IsValid() {
			return pos
		}
	}
	return def
}

// MayPanic checks whether some instruction of blk may panic. Calls may panic
// in the callee; the explicit panic instruction always does.
func MayPanic(blk *ssa.BasicBlock) bool {
	for _, i := range blk.Instrs {
		switch i := i.(type) {
		case *ssa.Panic:
			return true
		case *ssa.Call:
			if _, builtin := i.Call.Value.(*ssa.Builtin); !builtin {
				return true
			}
		case *ssa.RunDefers:
			return true
		}
	}
	return false
}

// Program serves the bodies of the functions of an SSA program. Graphs are
// built on first request and shared afterwards.
type Program struct {
	prog   *ssa.Program
	mu     sync.Mutex
	bodies map[*ssa.Function]*cfg.Graph[ssa.Instruction]
}

func NewProgram(prog *ssa.Program) *Program {
	return &Program{
		prog:   prog,
		bodies: make(map[*ssa.Function]*cfg.Graph[ssa.Instruction]),
	}
}

// Body implements summary.Program.
func (p *Program) Body(fn *ssa.Function) (cfg.View[ssa.Instruction], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if g, found := p.bodies[fn]; found {
		return g, g != nil
	}

	g, err := Build(fn)
	if err != nil {
		g = nil
	}
	p.bodies[fn] = g
	return g, g != nil
}

// Functions lists the functions of the program with a body, sorted by name.
func (p *Program) Functions() []*ssa.Function {
	var res []*ssa.Function
	for fn := range ssautil.AllFunctions(p.prog) {
		if len(fn.Blocks) > 0 {
			res = append(res, fn)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if a, b := res[i].String(), res[j].String(); a != b {
			return a < b
		}
		return res[i].Pos() < res[j].Pos()
	})
	return res
}

// Lookup finds a package-level function or method by its qualified name, as
// printed by (*ssa.Function).String.
func (p *Program) Lookup(name string) (*ssa.Function, bool) {
	for _, fn := range p.Functions() {
		if fn.String() == name || fn.Name() == name {
			return fn, true
		}
	}
	return nil, false
}

// Callees lists the functions statically called by fn.
func Callees(fn *ssa.Function) (res []*ssa.Function) {
	seen := make(map[*ssa.Function]bool)
	for _, blk := range fn.Blocks {
		for _, i := range blk.Instrs {
			ci, ok := i.(ssa.CallInstruction)
			if !ok {
				continue
			}
			if callee := ci.Common().StaticCallee(); callee != nil && !seen[callee] {
				seen[callee] = true
				res = append(res, callee)
			}
		}
	}
	return
}
