package ir

import "fmt"

// Type is the type of a Value.
// The set of Types is closed: *IntType, *FloatType, *BoolType, *OtherType.
type Type interface {
	String() string
	isType()
}

// IntType is a fixed-width integer type.
type IntType struct {
	Name   string // Source-level name, e.g. "int" or "uint8" (optional).
	Bits   int    // Width in bits.
	Signed bool
}

// FloatType is a floating-point type.
type FloatType struct {
	Name string
	Bits int
}

// BoolType is the boolean type.
type BoolType struct{}

// OtherType is any type the IR does not model (pointers, strings, structs).
type OtherType struct {
	Name string
}

func (*IntType) isType()   {}
func (*FloatType) isType() {}
func (*BoolType) isType()  {}
func (*OtherType) isType() {}

func (t *IntType) String() string {
	if t.Name != "" {
		return t.Name
	}
	if t.Signed {
		return fmt.Sprintf("int%d", t.Bits)
	}
	return fmt.Sprintf("uint%d", t.Bits)
}

func (t *FloatType) String() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("float%d", t.Bits)
}

func (*BoolType) String() string { return "bool" }

func (t *OtherType) String() string { return t.Name }

// Commonly used types.
var (
	Int     = &IntType{Name: "int", Bits: 64, Signed: true}
	Int32   = &IntType{Name: "int32", Bits: 32, Signed: true}
	Uint8   = &IntType{Name: "uint8", Bits: 8}
	Float64 = &FloatType{Name: "float64", Bits: 64}
	Bool    = &BoolType{}
)

// IsInteger returns true if t is an integer type.
func IsInteger(t Type) bool {
	_, ok := t.(*IntType)
	return ok
}
