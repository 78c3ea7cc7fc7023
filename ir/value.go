package ir

import (
	"fmt"
	"go/constant"
	"go/token"
)

// Value is an operand of an Instruction.
//
// The set of Values is closed: *Const, *Param, *Global and the
// value-producing instructions *BinOp, *UnOp, *Phi and *Opaque.
type Value interface {
	// Name returns the name of the value, e.g. "t3" for a register, or the
	// literal form for a constant.
	Name() string

	// Type returns the type of the value.
	Type() Type

	String() string

	isValue()
}

// Const is a compile-time constant.
// A nil Value denotes the zero value of a non-basic type.
type Const struct {
	Value constant.Value
	typ   Type
}

// NewConst returns a constant of value v and type t.
func NewConst(v constant.Value, t Type) *Const {
	return &Const{Value: v, typ: t}
}

// IntConst returns an integer constant of value i and type t.
func IntConst(i int64, t Type) *Const {
	return NewConst(constant.MakeInt64(i), t)
}

func (c *Const) Name() string { return c.String() }
func (c *Const) Type() Type   { return c.typ }
func (*Const) isValue()       {}

func (c *Const) String() string {
	if c.Value == nil {
		return fmt.Sprintf("nil:%s", c.typ)
	}
	return fmt.Sprintf("%s:%s", c.Value.String(), c.typ)
}

// IsInt returns true if c is an integer-typed constant exactly equal to i.
func (c *Const) IsInt(i int64) bool {
	if c.Value == nil || !IsInteger(c.typ) {
		return false
	}
	v := constant.ToInt(c.Value)
	if v.Kind() != constant.Int {
		return false
	}
	return constant.Compare(v, token.EQL, constant.MakeInt64(i))
}

// Param is a formal parameter of a Function.
type Param struct {
	name string
	typ  Type
}

// NewParam returns a parameter called name of type t.
func NewParam(name string, t Type) *Param {
	return &Param{name: name, typ: t}
}

func (p *Param) Name() string   { return p.name }
func (p *Param) Type() Type     { return p.typ }
func (p *Param) String() string { return fmt.Sprintf("parameter %s : %s", p.name, p.typ) }
func (*Param) isValue()         {}

// Global is a reference to something defined outside the function body:
// a package-level variable, a function, a builtin or a free variable.
type Global struct {
	name string
	typ  Type
}

// NewGlobal returns a reference called name of type t.
func NewGlobal(name string, t Type) *Global {
	return &Global{name: name, typ: t}
}

func (g *Global) Name() string   { return g.name }
func (g *Global) Type() Type     { return g.typ }
func (g *Global) String() string { return fmt.Sprintf("global %s : %s", g.name, g.typ) }
func (*Global) isValue()         {}

// relName returns the operand form of v.
func relName(v Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.Name()
}
