package cfg

import "go/token"

// Builder assembles a procedure block by block. A fresh builder holds the
// entry and exit blocks.
type Builder[I any] struct {
	proc Procedure[I]
}

func NewBuilder[I any](name string) *Builder[I] {
	return &Builder[I]{Procedure[I]{
		Name:   name,
		Blocks: []Block[I]{{Kind: Entry}, {Kind: Exit}},
		Entry:  0,
		Exit:   1,
	}}
}

func (b *Builder[I]) Entry() int { return b.proc.Entry }
func (b *Builder[I]) Exit() int  { return b.proc.Exit }

// AddBlock appends a block and returns its index.
func (b *Builder[I]) AddBlock(kind Kind, pos token.Pos, instrs ...I) int {
	b.proc.Blocks = append(b.proc.Blocks, Block[I]{
		Kind:   kind,
		Pos:    pos,
		Instrs: instrs,
	})
	return len(b.proc.Blocks) - 1
}

// Append adds instructions to an existing block.
func (b *Builder[I]) Append(block int, instrs ...I) *Builder[I] {
	b.proc.Blocks[block].Instrs = append(b.proc.Blocks[block].Instrs, instrs...)
	return b
}

// Edge adds normal edges from one block to each of the given blocks.
func (b *Builder[I]) Edge(from int, to ...int) *Builder[I] {
	b.proc.Blocks[from].Succs = append(b.proc.Blocks[from].Succs, to...)
	return b
}

// ExnEdge adds exceptional edges from one block to each of the given blocks.
func (b *Builder[I]) ExnEdge(from int, to ...int) *Builder[I] {
	b.proc.Blocks[from].Exns = append(b.proc.Blocks[from].Exns, to...)
	return b
}

// Build indexes the assembled procedure. The builder must not be used
// afterwards.
func (b *Builder[I]) Build() (*Graph[I], error) {
	proc := b.proc
	return New(&proc)
}
