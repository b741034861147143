package cfg

import (
	"fmt"
	"go/token"
)

// RetainFunc decides whether the invariant of an instruction node is kept
// after the fixpoint is reached.
type RetainFunc[I any] func(n Node, instr I) bool

type perInstr[I any] struct {
	v    View[I]
	keep RetainFunc[I]
}

// OneInstrPerNode refines every block of the block-level view v into one node
// per instruction. Blocks without instructions keep a single whole-block node.
// keep is the retention policy for instruction nodes; the start and exit
// nodes are always retained. A nil policy retains everything.
//
// Refine before reversing: Backward(OneInstrPerNode(v, keep)) keeps
// instruction offsets relative to the forward order.
func OneInstrPerNode[I any](v View[I], keep RetainFunc[I]) View[I] {
	for _, n := range v.Nodes() {
		if !n.IsBlock() {
			panic(fmt.Errorf("%w: view is already refined at %s", ErrMalformed, n))
		}
	}
	return &perInstr[I]{v, keep}
}

func (p perInstr[I]) size(b int) int {
	return len(p.v.Instrs(BlockNode(b)))
}

func (p perInstr[I]) first(b int) Node {
	if p.size(b) == 0 {
		return BlockNode(b)
	}
	return Node{b, 0}
}

func (p perInstr[I]) last(b int) Node {
	n := p.size(b)
	if n == 0 {
		return BlockNode(b)
	}
	return Node{b, n - 1}
}

func (p perInstr[I]) all(b int) []Node {
	n := p.size(b)
	if n == 0 {
		return []Node{BlockNode(b)}
	}
	res := make([]Node, n)
	for i := range res {
		res[i] = Node{b, i}
	}
	return res
}

func (p perInstr[I]) isFirst(n Node) bool {
	return n.Instr <= 0
}

func (p perInstr[I]) isLast(n Node) bool {
	return n.IsBlock() || n.Instr == p.size(n.Block)-1
}

func (p perInstr[I]) mapBlocks(ns []Node, f func(int) Node) []Node {
	if len(ns) == 0 {
		return nil
	}
	res := make([]Node, len(ns))
	for i, n := range ns {
		res[i] = f(n.Block)
	}
	return res
}

func (p perInstr[I]) Nodes() (res []Node) {
	for _, b := range p.v.Nodes() {
		res = append(res, p.all(b.Block)...)
	}
	return
}

func (p perInstr[I]) Start() Node {
	return p.first(p.v.Start().Block)
}

func (p perInstr[I]) Exit() Node {
	return p.last(p.v.Exit().Block)
}

func (p perInstr[I]) Succs(n Node) []Node {
	if !p.isLast(n) {
		return []Node{{n.Block, n.Instr + 1}}
	}
	return p.mapBlocks(p.v.Succs(BlockNode(n.Block)), p.first)
}

func (p perInstr[I]) Preds(n Node) []Node {
	if !p.isFirst(n) {
		return []Node{{n.Block, n.Instr - 1}}
	}
	return p.mapBlocks(p.v.Preds(BlockNode(n.Block)), p.last)
}

// ExnSuccs are shared by every instruction of a block, since any of them
// may raise.
func (p perInstr[I]) ExnSuccs(n Node) []Node {
	return p.mapBlocks(p.v.ExnSuccs(BlockNode(n.Block)), p.first)
}

func (p perInstr[I]) ExnPreds(n Node) (res []Node) {
	if !p.isFirst(n) {
		return nil
	}
	for _, pred := range p.v.ExnPreds(BlockNode(n.Block)) {
		res = append(res, p.all(pred.Block)...)
	}
	return
}

func (p perInstr[I]) Instrs(n Node) []I {
	if n.IsBlock() {
		return nil
	}
	instrs := p.v.Instrs(BlockNode(n.Block))
	return instrs[n.Instr : n.Instr+1]
}

func (p perInstr[I]) Kind(n Node) Kind {
	return p.v.Kind(BlockNode(n.Block))
}

type positioned interface {
	Pos() token.Pos
}

// Pos prefers the position of the instruction, if it has a valid one.
func (p perInstr[I]) Pos(n Node) token.Pos {
	if !n.IsBlock() {
		if instr, ok := any(p.Instrs(n)[0]).(positioned); ok && instr.Pos().IsValid() {
			return instr.Pos()
		}
	}
	return p.v.Pos(BlockNode(n.Block))
}

func (p perInstr[I]) Retain(n Node) bool {
	if n == p.Start() || n == p.Exit() || n.IsBlock() || p.keep == nil {
		return true
	}
	return p.keep(n, p.Instrs(n)[0])
}
