package ir

import (
	"bytes"
	"fmt"
	"go/token"
	"strings"
)

// Instruction is a single operation in a BasicBlock.
//
// The set of Instructions is closed: *BinOp, *UnOp, *Phi, *If, *Jump,
// *Return and *Opaque.
type Instruction interface {
	// Block returns the block containing the instruction.
	Block() *BasicBlock

	// Operands appends the addresses of the instruction's operand slots to
	// rands and returns the result. Writing through a slot replaces the
	// operand in place.
	Operands(rands []*Value) []*Value

	// String returns the instruction without its result register,
	// e.g. "t2 + 1:int".
	String() string

	setBlock(*BasicBlock)
	isInstruction()
}

type anInstruction struct {
	block *BasicBlock
}

func (a *anInstruction) Block() *BasicBlock     { return a.block }
func (a *anInstruction) setBlock(b *BasicBlock) { a.block = b }
func (*anInstruction) isInstruction()           {}

// register is the result of a value-producing instruction.
type register struct {
	anInstruction
	name string
	typ  Type
}

func (r *register) Name() string { return r.name }
func (r *register) Type() Type   { return r.typ }
func (*register) isValue()       {}

// BinOp is a binary operation X Op Y.
type BinOp struct {
	register
	Op   token.Token // One of the arithmetic, bitwise or comparison tokens.
	X, Y Value
}

// NewBinOp returns a binary operation producing a value of type t.
func NewBinOp(name string, op token.Token, x, y Value, t Type) *BinOp {
	v := &BinOp{Op: op, X: x, Y: y}
	v.name, v.typ = name, t
	return v
}

func (v *BinOp) Operands(rands []*Value) []*Value { return append(rands, &v.X, &v.Y) }

func (v *BinOp) String() string {
	return fmt.Sprintf("%s %s %s", relName(v.X), v.Op, relName(v.Y))
}

// UnOp is a unary operation Op X.
type UnOp struct {
	register
	Op token.Token // token.SUB, token.NOT or token.XOR.
	X  Value
}

// NewUnOp returns a unary operation producing a value of type t.
func NewUnOp(name string, op token.Token, x Value, t Type) *UnOp {
	v := &UnOp{Op: op, X: x}
	v.name, v.typ = name, t
	return v
}

func (v *UnOp) Operands(rands []*Value) []*Value { return append(rands, &v.X) }
func (v *UnOp) String() string                   { return fmt.Sprintf("%s%s", v.Op, relName(v.X)) }

// Phi selects Edges[i] when control arrives from Block().Preds[i].
type Phi struct {
	register
	Edges   []Value
	Comment string // Source variable, if known.
}

// NewPhi returns a phi node producing a value of type t.
func NewPhi(name string, edges []Value, t Type, comment string) *Phi {
	v := &Phi{Edges: edges, Comment: comment}
	v.name, v.typ = name, t
	return v
}

func (v *Phi) Operands(rands []*Value) []*Value {
	for i := range v.Edges {
		rands = append(rands, &v.Edges[i])
	}
	return rands
}

func (v *Phi) String() string {
	var buf bytes.Buffer
	buf.WriteString("phi [")
	for i, edge := range v.Edges {
		if i > 0 {
			buf.WriteString(", ")
		}
		if v.block != nil && i < len(v.block.Preds) {
			fmt.Fprintf(&buf, "%d: ", v.block.Preds[i].Index)
		} else {
			buf.WriteString("?: ")
		}
		buf.WriteString(relName(edge))
	}
	buf.WriteString("]")
	if v.Comment != "" {
		buf.WriteString(" #")
		buf.WriteString(v.Comment)
	}
	return buf.String()
}

// If is a conditional branch. Control transfers to Block().Succs[0] if Cond
// is true and to Block().Succs[1] otherwise.
type If struct {
	anInstruction
	Cond Value
}

// NewIf returns a conditional branch on cond.
func NewIf(cond Value) *If { return &If{Cond: cond} }

func (v *If) Operands(rands []*Value) []*Value { return append(rands, &v.Cond) }

func (v *If) String() string {
	if v.block != nil && len(v.block.Succs) == 2 {
		return fmt.Sprintf("if %s goto %d else %d", relName(v.Cond), v.block.Succs[0].Index, v.block.Succs[1].Index)
	}
	return fmt.Sprintf("if %s", relName(v.Cond))
}

// Jump is an unconditional branch to Block().Succs[0].
type Jump struct {
	anInstruction
}

// NewJump returns an unconditional branch.
func NewJump() *Jump { return &Jump{} }

func (*Jump) Operands(rands []*Value) []*Value { return rands }

func (v *Jump) String() string {
	if v.block != nil && len(v.block.Succs) == 1 {
		return fmt.Sprintf("jump %d", v.block.Succs[0].Index)
	}
	return "jump"
}

// Return returns Results from the function.
type Return struct {
	anInstruction
	Results []Value
}

// NewReturn returns a return instruction.
func NewReturn(results ...Value) *Return { return &Return{Results: results} }

func (v *Return) Operands(rands []*Value) []*Value {
	for i := range v.Results {
		rands = append(rands, &v.Results[i])
	}
	return rands
}

func (v *Return) String() string {
	names := make([]string, len(v.Results))
	for i, r := range v.Results {
		names[i] = relName(r)
	}
	if len(names) == 0 {
		return "return"
	}
	return "return " + strings.Join(names, ", ")
}

// Opaque is an operation that is not modelled by the IR, e.g. a call or a
// memory access. Text is its printed form.
// An Opaque with an empty name does not produce a value.
type Opaque struct {
	register
	Text string
	Args []Value
}

// NewOpaque returns an opaque operation. If name is empty the operation does
// not produce a value.
func NewOpaque(name, text string, args []Value, t Type) *Opaque {
	v := &Opaque{Text: text, Args: args}
	v.name, v.typ = name, t
	return v
}

func (v *Opaque) Operands(rands []*Value) []*Value {
	for i := range v.Args {
		rands = append(rands, &v.Args[i])
	}
	return rands
}

func (v *Opaque) String() string { return v.Text }

// HasValue returns true if the operation produces a value.
func (v *Opaque) HasValue() bool { return v.name != "" }

var (
	_ Value = (*BinOp)(nil)
	_ Value = (*UnOp)(nil)
	_ Value = (*Phi)(nil)
	_ Value = (*Opaque)(nil)

	_ Instruction = (*BinOp)(nil)
	_ Instruction = (*UnOp)(nil)
	_ Instruction = (*Phi)(nil)
	_ Instruction = (*If)(nil)
	_ Instruction = (*Jump)(nil)
	_ Instruction = (*Return)(nil)
	_ Instruction = (*Opaque)(nil)
)
