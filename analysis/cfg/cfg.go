// Package cfg exposes control flow graphs of procedures through a normalized
// node/edge interface. Views over the same graph change the direction of
// traversal, hide exceptional edges, or refine blocks into one node per
// instruction, without copying the underlying graph.
package cfg

import (
	"errors"
	"fmt"
	"go/token"
)

// Kind classifies blocks.
type Kind uint8

const (
	Stmt Kind = iota
	Entry
	Exit
	Branch
	// ExnSink is the catch-all block exceptional control flows into.
	ExnSink
)

func (k Kind) String() string {
	switch k {
	case Stmt:
		return "stmt"
	case Entry:
		return "entry"
	case Exit:
		return "exit"
	case Branch:
		return "branch"
	case ExnSink:
		return "exn-sink"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Block is a basic block of a raw procedure. Edges are block indices.
// Only forward exceptional edges are stored.
type Block[I any] struct {
	Kind   Kind
	Pos    token.Pos
	Instrs []I
	Succs  []int
	Exns   []int
}

// Procedure is the raw representation of a procedure body produced by a
// front end. Blocks are addressed by their index.
type Procedure[I any] struct {
	Name   string
	Blocks []Block[I]
	Entry  int
	Exit   int
}

// Node identifies a node of a view. Instr is -1 for nodes standing for a
// whole block, and the instruction offset otherwise.
type Node struct {
	Block int
	Instr int
}

// BlockNode is the node standing for the whole block b.
func BlockNode(b int) Node {
	return Node{b, -1}
}

// IsBlock checks whether n stands for a whole block.
func (n Node) IsBlock() bool {
	return n.Instr < 0
}

func (n Node) String() string {
	if n.IsBlock() {
		return fmt.Sprintf("b%d", n.Block)
	}
	return fmt.Sprintf("b%d.%d", n.Block, n.Instr)
}

// Less orders nodes by block, then by instruction offset.
func (n Node) Less(o Node) bool {
	if n.Block != o.Block {
		return n.Block < o.Block
	}
	return n.Instr < o.Instr
}

// Hash is used for storing nodes in persistent maps.
func (n Node) Hash() uint32 {
	return uint32(n.Block)*31 + uint32(n.Instr+1)
}

func (n Node) Equal(o Node) bool {
	return n == o
}

var (
	ErrMalformed = errors.New("malformed procedure")
)

// Graph is the block-level view of a procedure. Predecessors and exceptional
// predecessors are precomputed at construction.
type Graph[I any] struct {
	proc     *Procedure[I]
	preds    [][]int
	exnPreds [][]int
	nodes    []Node
}

// New indexes a procedure in time linear in its number of blocks and edges.
// Edges are validated to refer to existing blocks.
func New[I any](proc *Procedure[I]) (*Graph[I], error) {
	n := len(proc.Blocks)
	inRange := func(b int) bool { return 0 <= b && b < n }

	if !inRange(proc.Entry) || !inRange(proc.Exit) {
		return nil, fmt.Errorf("%s: entry %d or exit %d out of range: %w",
			proc.Name, proc.Entry, proc.Exit, ErrMalformed)
	}

	g := &Graph[I]{
		proc:     proc,
		preds:    make([][]int, n),
		exnPreds: make([][]int, n),
		nodes:    make([]Node, n),
	}

	for b, block := range proc.Blocks {
		g.nodes[b] = BlockNode(b)
		for _, s := range block.Succs {
			if !inRange(s) {
				return nil, fmt.Errorf("%s: b%d has successor %d: %w", proc.Name, b, s, ErrMalformed)
			}
			g.preds[s] = append(g.preds[s], b)
		}
		for _, e := range block.Exns {
			if !inRange(e) {
				return nil, fmt.Errorf("%s: b%d has exceptional successor %d: %w", proc.Name, b, e, ErrMalformed)
			}
			g.exnPreds[e] = append(g.exnPreds[e], b)
		}
	}

	return g, nil
}

// Procedure returns the underlying raw procedure.
func (g *Graph[I]) Procedure() *Procedure[I] {
	return g.proc
}

func (g *Graph[I]) Name() string {
	return g.proc.Name
}

func blockNodes(bs []int) []Node {
	if len(bs) == 0 {
		return nil
	}
	res := make([]Node, len(bs))
	for i, b := range bs {
		res[i] = BlockNode(b)
	}
	return res
}

func (g *Graph[I]) Nodes() []Node          { return g.nodes }
func (g *Graph[I]) Start() Node            { return BlockNode(g.proc.Entry) }
func (g *Graph[I]) Exit() Node             { return BlockNode(g.proc.Exit) }
func (g *Graph[I]) Succs(n Node) []Node    { return blockNodes(g.proc.Blocks[n.Block].Succs) }
func (g *Graph[I]) Preds(n Node) []Node    { return blockNodes(g.preds[n.Block]) }
func (g *Graph[I]) ExnSuccs(n Node) []Node { return blockNodes(g.proc.Blocks[n.Block].Exns) }
func (g *Graph[I]) ExnPreds(n Node) []Node { return blockNodes(g.exnPreds[n.Block]) }
func (g *Graph[I]) Instrs(n Node) []I      { return g.proc.Blocks[n.Block].Instrs }
func (g *Graph[I]) Kind(n Node) Kind       { return g.proc.Blocks[n.Block].Kind }
func (g *Graph[I]) Pos(n Node) token.Pos   { return g.proc.Blocks[n.Block].Pos }
