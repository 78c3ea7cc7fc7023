package interp

import (
	"go/constant"
	"go/token"
	"math"

	"github.com/nickng/perforator/ir"
	"github.com/pkg/errors"
)

type kind int

const (
	kInt kind = iota
	kFloat
	kBool
)

// value is a scalar. Integers are kept in i, wrapped to their type.
type value struct {
	kind kind
	i    int64
	f    float64
	b    bool
}

func intValue(i int64, t ir.Type) value {
	if it, ok := t.(*ir.IntType); ok {
		i = wrap(i, it)
	}
	return value{kind: kInt, i: i}
}

// wrap truncates i to the width of t.
func wrap(i int64, t *ir.IntType) int64 {
	if t.Bits <= 0 || t.Bits >= 64 {
		return i
	}
	shift := uint(64 - t.Bits)
	if t.Signed {
		return i << shift >> shift
	}
	return int64(uint64(i) << shift >> shift)
}

func (v value) toGo() any {
	switch v.kind {
	case kFloat:
		return v.f
	case kBool:
		return v.b
	}
	return v.i
}

// fromGo converts a Go scalar to a value of type t.
func fromGo(x any, t ir.Type) (value, error) {
	switch t := t.(type) {
	case *ir.IntType:
		var i int64
		switch x := x.(type) {
		case int:
			i = int64(x)
		case int8:
			i = int64(x)
		case int16:
			i = int64(x)
		case int32:
			i = int64(x)
		case int64:
			i = x
		case uint:
			i = int64(x)
		case uint8:
			i = int64(x)
		case uint16:
			i = int64(x)
		case uint32:
			i = int64(x)
		case uint64:
			i = int64(x)
		default:
			return value{}, errors.Wrapf(ErrBadArgs, "%v (%T) is not an integer", x, x)
		}
		return intValue(i, t), nil
	case *ir.FloatType:
		switch x := x.(type) {
		case float64:
			return floatValue(x, t), nil
		case float32:
			return floatValue(float64(x), t), nil
		case int:
			return floatValue(float64(x), t), nil
		}
		return value{}, errors.Wrapf(ErrBadArgs, "%v (%T) is not a float", x, x)
	case *ir.BoolType:
		if b, ok := x.(bool); ok {
			return value{kind: kBool, b: b}, nil
		}
		return value{}, errors.Wrapf(ErrBadArgs, "%v (%T) is not a bool", x, x)
	}
	return value{}, errors.Wrapf(ErrUnsupported, "parameter of type %s", t)
}

func constValue(c *ir.Const) (value, error) {
	if c.Value == nil {
		return value{}, errors.Wrapf(ErrUnsupported, "constant %s", c)
	}
	switch t := c.Type().(type) {
	case *ir.IntType:
		v := constant.ToInt(c.Value)
		if i, exact := constant.Int64Val(v); exact {
			return intValue(i, t), nil
		}
		if u, exact := constant.Uint64Val(v); exact {
			return intValue(int64(u), t), nil
		}
	case *ir.FloatType:
		f, _ := constant.Float64Val(constant.ToFloat(c.Value))
		return floatValue(f, t), nil
	case *ir.BoolType:
		if c.Value.Kind() == constant.Bool {
			return value{kind: kBool, b: constant.BoolVal(c.Value)}, nil
		}
	}
	return value{}, errors.Wrapf(ErrUnsupported, "constant %s", c)
}

// binop computes x op y. xt and yt are the types of x and y, result the type
// of the result. Only shifts have operands of different types.
func binop(op token.Token, xt, yt, result ir.Type, x, y value) (value, error) {
	switch t := xt.(type) {
	case *ir.IntType:
		if op == token.SHL || op == token.SHR {
			return shift(op, t, yt, result, x.i, y.i)
		}
		return intBinop(op, t, result, x.i, y.i)
	case *ir.FloatType:
		return floatBinop(op, result, x.f, y.f)
	case *ir.BoolType:
		switch op {
		case token.EQL:
			return value{kind: kBool, b: x.b == y.b}, nil
		case token.NEQ:
			return value{kind: kBool, b: x.b != y.b}, nil
		}
	}
	return value{}, errors.Wrapf(ErrUnsupported, "%s on %s", op, xt)
}

func intBinop(op token.Token, t *ir.IntType, result ir.Type, x, y int64) (value, error) {
	ux, uy := unsigned(x, t), unsigned(y, t)
	switch op {
	case token.ADD:
		return intValue(x+y, result), nil
	case token.SUB:
		return intValue(x-y, result), nil
	case token.MUL:
		return intValue(x*y, result), nil
	case token.QUO, token.REM:
		if y == 0 {
			return value{}, ErrDivideByZero
		}
		if !t.Signed {
			if op == token.QUO {
				return intValue(int64(ux/uy), result), nil
			}
			return intValue(int64(ux%uy), result), nil
		}
		if x == math.MinInt64 && y == -1 {
			// Overflows int64; the quotient wraps to x.
			if op == token.QUO {
				return intValue(x, result), nil
			}
			return intValue(0, result), nil
		}
		if op == token.QUO {
			return intValue(x/y, result), nil
		}
		return intValue(x%y, result), nil
	case token.AND:
		return intValue(x&y, result), nil
	case token.OR:
		return intValue(x|y, result), nil
	case token.XOR:
		return intValue(x^y, result), nil
	case token.AND_NOT:
		return intValue(x&^y, result), nil
	}

	var b bool
	if t.Signed {
		b = compare(op, x, y)
	} else {
		b = compare(op, ux, uy)
	}
	switch op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return value{kind: kBool, b: b}, nil
	}
	return value{}, errors.Wrapf(ErrUnsupported, "%s on %s", op, t)
}

// unsigned returns the bits of x as an unsigned value of the width of t.
func unsigned(x int64, t *ir.IntType) uint64 {
	ux := uint64(x)
	if !t.Signed && t.Bits > 0 && t.Bits < 64 {
		ux &= uint64(1)<<uint(t.Bits) - 1
	}
	return ux
}

// shift computes x << n or x >> n. The count n has its own type yt.
func shift(op token.Token, t *ir.IntType, yt, result ir.Type, x, n int64) (value, error) {
	count := uint64(n)
	if ct, ok := yt.(*ir.IntType); ok {
		if ct.Signed && n < 0 {
			return value{}, errors.Errorf("negative shift amount %d", n)
		}
		count = unsigned(n, ct)
	}
	if op == token.SHL {
		if count >= 64 {
			return intValue(0, result), nil
		}
		return intValue(x<<count, result), nil
	}
	if t.Signed {
		if count >= 64 {
			count = 63
		}
		return intValue(x>>count, result), nil
	}
	if count >= 64 {
		return intValue(0, result), nil
	}
	return intValue(int64(unsigned(x, t)>>count), result), nil
}

// floatValue rounds f to the precision of t.
func floatValue(f float64, t ir.Type) value {
	if ft, ok := t.(*ir.FloatType); ok && ft.Bits == 32 {
		f = float64(float32(f))
	}
	return value{kind: kFloat, f: f}
}

func floatBinop(op token.Token, result ir.Type, x, y float64) (value, error) {
	switch op {
	case token.ADD:
		return floatValue(x+y, result), nil
	case token.SUB:
		return floatValue(x-y, result), nil
	case token.MUL:
		return floatValue(x*y, result), nil
	case token.QUO:
		return floatValue(x/y, result), nil
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return value{kind: kBool, b: compare(op, x, y)}, nil
	}
	return value{}, errors.Wrapf(ErrUnsupported, "%s on float", op)
}

func compare[T int64 | uint64 | float64](op token.Token, x, y T) bool {
	switch op {
	case token.EQL:
		return x == y
	case token.NEQ:
		return x != y
	case token.LSS:
		return x < y
	case token.LEQ:
		return x <= y
	case token.GTR:
		return x > y
	case token.GEQ:
		return x >= y
	}
	return false
}

func unop(op token.Token, t ir.Type, x value) (value, error) {
	switch op {
	case token.SUB:
		if x.kind == kFloat {
			return value{kind: kFloat, f: -x.f}, nil
		}
		return intValue(-x.i, t), nil
	case token.NOT:
		return value{kind: kBool, b: !x.b}, nil
	case token.XOR:
		return intValue(^x.i, t), nil
	}
	return value{}, errors.Wrapf(ErrUnsupported, "unary %s", op)
}
