package ir

import "fmt"

// Function is a single procedure body.
type Function struct {
	Name   string
	Params []*Param
	Blocks []*BasicBlock // Blocks[0] is the entry block.

	nregs int // Counter for generated register names.
}

// NewFunction returns an empty Function.
func NewFunction(name string, params ...*Param) *Function {
	return &Function{Name: name, Params: params}
}

// NewBlock appends a new empty block to f.
func (f *Function) NewBlock(comment string) *BasicBlock {
	b := &BasicBlock{Index: len(f.Blocks), Comment: comment, parent: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Instrs returns the number of instructions in f.
func (f *Function) Instrs() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Instrs)
	}
	return n
}

func (f *Function) String() string { return f.Name }

// BasicBlock is a sequence of instructions ending in a control transfer.
type BasicBlock struct {
	Index   int    // Position in parent.Blocks.
	Comment string // Hint for diagnostics, e.g. "for.body".
	Instrs  []Instruction
	Preds   []*BasicBlock
	Succs   []*BasicBlock

	parent *Function
}

// Parent returns the function containing b.
func (b *BasicBlock) Parent() *Function { return b.parent }

// Name returns an identifying name of the block for diagnostics.
func (b *BasicBlock) Name() string {
	if b.Comment == "" {
		return fmt.Sprintf("b%d", b.Index)
	}
	return fmt.Sprintf("%s.%d", b.Comment, b.Index)
}

func (b *BasicBlock) String() string { return fmt.Sprintf("%d", b.Index) }

// Emit appends instr to b. A value-producing instruction without a name is
// given a fresh register name.
func (b *BasicBlock) Emit(instr Instruction) Instruction {
	instr.setBlock(b)
	if r, ok := instr.(interface{ reg() *register }); ok {
		if reg := r.reg(); reg.name == "" && b.parent != nil {
			if _, opaque := instr.(*Opaque); !opaque {
				reg.name = fmt.Sprintf("t%d", b.parent.nregs)
				b.parent.nregs++
			}
		}
	}
	b.Instrs = append(b.Instrs, instr)
	return instr
}

func (r *register) reg() *register { return r }

// AddEdge adds a control-flow edge from → to.
func AddEdge(from, to *BasicBlock) {
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}
