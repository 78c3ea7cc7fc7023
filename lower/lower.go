// Package lower translates go/ssa functions into the loop-analysis IR.
//
// Control flow (blocks, edges, If, Jump, Return), phi nodes and scalar
// arithmetic are translated one to one, keeping block order, instruction
// order and register names. Every other instruction becomes an ir.Opaque
// carrying its go/ssa text and operands.
package lower

import (
	"go/token"
	"go/types"

	"github.com/nickng/perforator/internal/logging"
	"github.com/nickng/perforator/ir"
	"github.com/nickng/perforator/ssa"
	"github.com/pkg/errors"
	gossa "golang.org/x/tools/go/ssa"
)

var ErrNoFuncs = errors.New("no functions to lower")

// Program lowers the functions selected by paths (all functions if none).
func Program(info *ssa.Info, paths ...string) ([]*ir.Function, error) {
	fns, err := info.FindFuncs(paths...)
	if err != nil {
		return nil, err
	}
	if len(fns) == 0 {
		return nil, ErrNoFuncs
	}
	return Funcs(fns), nil
}

// Funcs lowers each of fns.
func Funcs(fns []*gossa.Function) []*ir.Function {
	out := make([]*ir.Function, 0, len(fns))
	for _, fn := range fns {
		out = append(out, Func(fn))
	}
	return out
}

// Func lowers a single function. A function without a body (external or
// not built) lowers to a function without blocks.
func Func(fn *gossa.Function) *ir.Function {
	return newLowerer(fn, nil).lower()
}

// FuncWithLog is Func logging untranslated instructions to logger.
func FuncWithLog(fn *gossa.Function, logger *logging.Logger) *ir.Function {
	return newLowerer(fn, logger).lower()
}

type lowerer struct {
	fn     *gossa.Function
	out    *ir.Function
	blocks map[*gossa.BasicBlock]*ir.BasicBlock
	values map[gossa.Value]ir.Value
	instrs map[gossa.Instruction]ir.Instruction

	logger *logging.Logger
}

func newLowerer(fn *gossa.Function, logger *logging.Logger) *lowerer {
	return &lowerer{
		fn:     fn,
		blocks: make(map[*gossa.BasicBlock]*ir.BasicBlock),
		values: make(map[gossa.Value]ir.Value),
		instrs: make(map[gossa.Instruction]ir.Instruction),
		logger: logging.OrNop(logger),
	}
}

func (l *lowerer) lower() *ir.Function {
	var params []*ir.Param
	for _, p := range l.fn.Params {
		param := ir.NewParam(p.Name(), Type(p.Type()))
		params = append(params, param)
		l.values[p] = param
	}
	l.out = ir.NewFunction(l.fn.String(), params...)

	// Blocks first so that edges and forward references resolve.
	for _, b := range l.fn.Blocks {
		l.blocks[b] = l.out.NewBlock(b.Comment)
	}
	for _, b := range l.fn.Blocks {
		blk := l.blocks[b]
		for _, pred := range b.Preds {
			blk.Preds = append(blk.Preds, l.blocks[pred])
		}
		for _, succ := range b.Succs {
			blk.Succs = append(blk.Succs, l.blocks[succ])
		}
		for _, instr := range b.Instrs {
			if lowered := l.skeleton(instr); lowered != nil {
				blk.Emit(lowered)
			}
		}
	}
	// Operands refer to values that may be defined later (phi edges).
	for instr, lowered := range l.instrs {
		l.operands(instr, lowered)
	}
	return l.out
}

// skeleton creates the IR instruction for instr without operands.
func (l *lowerer) skeleton(instr gossa.Instruction) ir.Instruction {
	var lowered ir.Instruction
	switch instr := instr.(type) {
	case *gossa.DebugRef:
		return nil

	case *gossa.BinOp:
		lowered = ir.NewBinOp(instr.Name(), instr.Op, nil, nil, Type(instr.Type()))

	case *gossa.UnOp:
		if instr.CommaOk || (instr.Op != token.SUB && instr.Op != token.NOT && instr.Op != token.XOR) {
			lowered = l.opaque(instr) // Loads and channel receives.
		} else {
			lowered = ir.NewUnOp(instr.Name(), instr.Op, nil, Type(instr.Type()))
		}

	case *gossa.Phi:
		lowered = ir.NewPhi(instr.Name(), make([]ir.Value, len(instr.Edges)), Type(instr.Type()), instr.Comment)

	case *gossa.If:
		lowered = ir.NewIf(nil)

	case *gossa.Jump:
		lowered = ir.NewJump()

	case *gossa.Return:
		lowered = ir.NewReturn(make([]ir.Value, len(instr.Results))...)

	default:
		lowered = l.opaque(instr)
	}
	l.instrs[instr] = lowered
	if v, ok := instr.(gossa.Value); ok {
		if lv, ok := lowered.(ir.Value); ok {
			l.values[v] = lv
		}
	}
	return lowered
}

func (l *lowerer) opaque(instr gossa.Instruction) *ir.Opaque {
	l.logger.Debugf("%s %s: %T kept opaque: %s", l.logger.Tag(), l.fn, instr, instr)
	var name string
	var typ ir.Type
	if v, ok := instr.(gossa.Value); ok {
		name, typ = v.Name(), Type(v.Type())
	}
	var args []ir.Value
	for _, rand := range instr.Operands(nil) {
		if *rand != nil {
			args = append(args, nil)
		}
	}
	return ir.NewOpaque(name, instr.String(), args, typ)
}

// operands fills in the operands of lowered from instr.
func (l *lowerer) operands(instr gossa.Instruction, lowered ir.Instruction) {
	switch lowered := lowered.(type) {
	case *ir.BinOp:
		binop := instr.(*gossa.BinOp)
		lowered.X, lowered.Y = l.value(binop.X), l.value(binop.Y)

	case *ir.UnOp:
		lowered.X = l.value(instr.(*gossa.UnOp).X)

	case *ir.Phi:
		for i, edge := range instr.(*gossa.Phi).Edges {
			lowered.Edges[i] = l.value(edge)
		}

	case *ir.If:
		lowered.Cond = l.value(instr.(*gossa.If).Cond)

	case *ir.Return:
		for i, res := range instr.(*gossa.Return).Results {
			lowered.Results[i] = l.value(res)
		}

	case *ir.Opaque:
		i := 0
		for _, rand := range instr.Operands(nil) {
			if *rand != nil {
				lowered.Args[i] = l.value(*rand)
				i++
			}
		}

	case *ir.Jump:
	}
}

// value returns the IR value for v.
func (l *lowerer) value(v gossa.Value) ir.Value {
	if lv, ok := l.values[v]; ok {
		return lv
	}
	var lv ir.Value
	switch v := v.(type) {
	case *gossa.Const:
		lv = ir.NewConst(v.Value, Type(v.Type()))
	case *gossa.Function:
		lv = ir.NewGlobal(v.String(), Type(v.Type()))
	case *gossa.Global:
		lv = ir.NewGlobal(v.String(), Type(v.Type()))
	default: // *ssa.FreeVar, *ssa.Builtin
		lv = ir.NewGlobal(v.Name(), Type(v.Type()))
	}
	l.values[v] = lv
	return lv
}

// Type translates a go/types type.
func Type(t types.Type) ir.Type {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return &ir.OtherType{Name: t.String()}
	}
	info := basic.Info()
	switch {
	case info&types.IsBoolean != 0:
		return ir.Bool
	case info&types.IsInteger != 0:
		return &ir.IntType{Name: t.String(), Bits: intBits(basic.Kind()), Signed: info&types.IsUnsigned == 0}
	case info&types.IsFloat != 0:
		bits := 64
		if basic.Kind() == types.Float32 {
			bits = 32
		}
		return &ir.FloatType{Name: t.String(), Bits: bits}
	}
	return &ir.OtherType{Name: t.String()}
}

func intBits(kind types.BasicKind) int {
	switch kind {
	case types.Int8, types.Uint8:
		return 8
	case types.Int16, types.Uint16:
		return 16
	case types.Int32, types.Uint32:
		return 32
	}
	return 64
}
