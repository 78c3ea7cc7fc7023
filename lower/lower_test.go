package lower

import (
	"go/token"
	"strings"
	"testing"

	"github.com/nickng/perforator/ir"
	"github.com/nickng/perforator/ssa/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const src = `package main

func zero() {
	var in [1600]int
	for i := 0; i < 1600; i++ {
		in[i] = 0
	}
	_ = in
}

func scale(x float64, n uint8) float64 {
	for k := uint8(0); k < n; k++ {
		x = -x * 1.5
	}
	return x
}

func main() {
	zero()
	println(scale(1, 2))
}
`

func lowerAll(t *testing.T, src string, paths ...string) []*ir.Function {
	info, err := build.FromReader(strings.NewReader(src)).Default().Build()
	require.NoError(t, err, "cannot build SSA")
	fns, err := Program(info, paths...)
	require.NoError(t, err)
	return fns
}

func findAdds(fn *ir.Function) []*ir.BinOp {
	var adds []*ir.BinOp
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if binop, ok := instr.(*ir.BinOp); ok && binop.Op == token.ADD {
				adds = append(adds, binop)
			}
		}
	}
	return adds
}

func TestLowerKeepsBlocksAndEdges(t *testing.T) {
	fns := lowerAll(t, src, "main.zero")
	require.Len(t, fns, 1)
	fn := fns[0]
	assert.Equal(t, "main.zero", fn.Name)
	for i, b := range fn.Blocks {
		assert.Equal(t, i, b.Index)
		assert.Same(t, fn, b.Parent())
		for _, succ := range b.Succs {
			assert.Contains(t, succ.Preds, b, "edge %d→%d has no matching pred", b.Index, succ.Index)
		}
		require.NotEmpty(t, b.Instrs)
		switch b.Instrs[len(b.Instrs)-1].(type) {
		case *ir.If:
			assert.Len(t, b.Succs, 2)
		case *ir.Jump:
			assert.Len(t, b.Succs, 1)
		case *ir.Return:
			assert.Empty(t, b.Succs)
		default:
			t.Errorf("block %d does not end in a control transfer", b.Index)
		}
	}
}

func TestLowerIncrement(t *testing.T) {
	fn := lowerAll(t, src, "main.zero")[0]
	adds := findAdds(fn)
	require.Len(t, adds, 1)
	inc := adds[0]
	step, ok := inc.Y.(*ir.Const)
	require.True(t, ok, "step should be a constant, got %T", inc.Y)
	assert.True(t, step.IsInt(1))
	assert.Equal(t, "int", step.Type().String())
	phi, ok := inc.X.(*ir.Phi)
	require.True(t, ok, "increment should read the loop phi, got %T", inc.X)
	assert.Equal(t, "i", phi.Comment)
	assert.Contains(t, phi.Edges, ir.Value(inc))
}

func TestLowerOpaqueMemory(t *testing.T) {
	fn := lowerAll(t, src, "main.zero")[0]
	var opaque []*ir.Opaque
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if op, ok := instr.(*ir.Opaque); ok {
				opaque = append(opaque, op)
			}
		}
	}
	require.NotEmpty(t, opaque)
	var store *ir.Opaque
	for _, op := range opaque {
		if strings.HasPrefix(op.Text, "*") && strings.Contains(op.Text, " = ") {
			store = op
		}
	}
	require.NotNil(t, store, "expects a store kept opaque")
	assert.False(t, store.HasValue())
	assert.NotEmpty(t, store.Args)
}

func TestLowerTypes(t *testing.T) {
	fn := lowerAll(t, src, "main.scale")[0]
	require.Len(t, fn.Params, 2)
	assert.IsType(t, &ir.FloatType{}, fn.Params[0].Type())
	n, ok := fn.Params[1].Type().(*ir.IntType)
	require.True(t, ok)
	assert.Equal(t, 8, n.Bits)
	assert.False(t, n.Signed)

	var neg *ir.UnOp
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if u, ok := instr.(*ir.UnOp); ok {
				neg = u
			}
		}
	}
	require.NotNil(t, neg)
	assert.Equal(t, token.SUB, neg.Op)

	adds := findAdds(fn)
	require.Len(t, adds, 1)
	assert.Equal(t, "uint8", adds[0].Y.Type().String())
}

func TestLowerNotFound(t *testing.T) {
	info, err := build.FromReader(strings.NewReader(src)).Build()
	require.NoError(t, err)
	_, err = Program(info, "main.missing")
	assert.Error(t, err)
}
