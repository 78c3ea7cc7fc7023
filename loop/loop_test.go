package loop

import (
	"strings"
	"testing"

	"github.com/nickng/perforator/ir"
	"github.com/nickng/perforator/lower"
	"github.com/nickng/perforator/ssa/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cfg builds a function with n blocks and the given edges.
func cfg(n int, edges ...[2]int) *ir.Function {
	fn := ir.NewFunction("cfg")
	for i := 0; i < n; i++ {
		fn.NewBlock("")
	}
	for _, e := range edges {
		ir.AddEdge(fn.Blocks[e[0]], fn.Blocks[e[1]])
	}
	return fn
}

func indices(blocks []*ir.BasicBlock) []int {
	var idx []int
	for _, b := range blocks {
		idx = append(idx, b.Index)
	}
	return idx
}

func lowerFunc(t *testing.T, src, path string) *ir.Function {
	info, err := build.FromReader(strings.NewReader(src)).Default().Build()
	require.NoError(t, err, "cannot build SSA")
	fns, err := lower.Program(info, path)
	require.NoError(t, err)
	require.Len(t, fns, 1)
	return fns[0]
}

func TestDominators(t *testing.T) {
	// 0 → 1 → {2, 3} → 4, 4 → 1, 5 → 4 (unreachable)
	fn := cfg(6, [2]int{0, 1}, [2]int{1, 2}, [2]int{1, 3}, [2]int{2, 4}, [2]int{3, 4}, [2]int{4, 1}, [2]int{5, 4})
	dom := Dominators(fn)
	b := fn.Blocks
	assert.Nil(t, dom.Idom(b[0]))
	assert.Same(t, b[0], dom.Idom(b[1]))
	assert.Same(t, b[1], dom.Idom(b[2]))
	assert.Same(t, b[1], dom.Idom(b[4]))
	assert.True(t, dom.Dominates(b[1], b[4]))
	assert.True(t, dom.Dominates(b[4], b[4]))
	assert.False(t, dom.Dominates(b[2], b[4]))
	assert.False(t, dom.Reachable(b[5]))
	assert.False(t, dom.Dominates(b[0], b[5]))
	assert.Nil(t, dom.Idom(b[5]))
}

func TestNoLoops(t *testing.T) {
	f := Analyse(cfg(3, [2]int{0, 1}, [2]int{1, 2}))
	assert.Equal(t, 0, f.Len())
	assert.Empty(t, f.TopLevel())

	empty := Analyse(ir.NewFunction("empty"))
	assert.Equal(t, 0, empty.Len())

	assert.Equal(t, 0, Analyse(nil).Len())
}

func TestSingleLoop(t *testing.T) {
	// 0 → 1 ⇄ 2, 1 → 3
	fn := cfg(4, [2]int{0, 1}, [2]int{1, 2}, [2]int{1, 3}, [2]int{2, 1})
	f := Analyse(fn)
	require.Equal(t, 1, f.Len())
	l := f.Loops()[0]
	assert.Same(t, fn.Blocks[1], l.Header())
	assert.Equal(t, []int{2}, indices(l.Latches()))
	assert.Equal(t, []int{1, 2}, indices(l.Blocks()))
	assert.Equal(t, 1, l.Depth())
	assert.Nil(t, l.Parent())
	assert.True(t, l.IsInnermost())
	assert.Same(t, l, f.LoopFor(fn.Blocks[2]))
	assert.Nil(t, f.LoopFor(fn.Blocks[3]))
	assert.Equal(t, "loop@b1 depth=1 blocks=2", l.String())
}

func TestSelfLoop(t *testing.T) {
	fn := cfg(3, [2]int{0, 1}, [2]int{1, 1}, [2]int{1, 2})
	f := Analyse(fn)
	require.Equal(t, 1, f.Len())
	assert.Equal(t, []int{1}, indices(f.Loops()[0].Blocks()))
}

func TestNestedLoops(t *testing.T) {
	// outer: 1 → 2 → 3 ⇄ 4, 3 → 5 → 1; inner: 3, 4
	fn := cfg(7,
		[2]int{0, 1}, [2]int{1, 2}, [2]int{1, 6},
		[2]int{2, 3}, [2]int{3, 4}, [2]int{4, 3}, [2]int{3, 5}, [2]int{5, 1})
	f := Analyse(fn)
	require.Equal(t, 2, f.Len())
	outer, inner := f.Loops()[0], f.Loops()[1]

	assert.Same(t, fn.Blocks[1], outer.Header())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, indices(outer.Blocks()))
	assert.Equal(t, 1, outer.Depth())
	assert.Nil(t, outer.Parent())
	assert.Equal(t, []*Loop{inner}, outer.Subloops())
	assert.False(t, outer.IsInnermost())

	assert.Same(t, fn.Blocks[3], inner.Header())
	assert.Equal(t, []int{3, 4}, indices(inner.Blocks()))
	assert.Equal(t, 2, inner.Depth())
	assert.Same(t, outer, inner.Parent())
	assert.True(t, inner.IsInnermost())

	assert.Equal(t, []*Loop{outer}, f.TopLevel())
	assert.Same(t, inner, f.LoopFor(fn.Blocks[4]))
	assert.Same(t, outer, f.LoopFor(fn.Blocks[5]))
}

func TestSequentialLoops(t *testing.T) {
	// 0 → 1 ⇄ 2, 1 → 3 ⇄ 4, 3 → 5
	fn := cfg(6, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 1}, [2]int{1, 3}, [2]int{3, 4}, [2]int{4, 3}, [2]int{3, 5})
	f := Analyse(fn)
	require.Equal(t, 2, f.Len())
	assert.Len(t, f.TopLevel(), 2)
	for _, l := range f.Loops() {
		assert.Equal(t, 1, l.Depth())
		assert.Nil(t, l.Parent())
	}
	assert.Same(t, fn.Blocks[1], f.Loops()[0].Header())
	assert.Same(t, fn.Blocks[3], f.Loops()[1].Header())
}

func TestMultipleLatches(t *testing.T) {
	// Two back edges to 1 (continue + normal), one loop.
	fn := cfg(5, [2]int{0, 1}, [2]int{1, 2}, [2]int{1, 4}, [2]int{2, 3}, [2]int{2, 1}, [2]int{3, 1})
	f := Analyse(fn)
	require.Equal(t, 1, f.Len())
	l := f.Loops()[0]
	assert.ElementsMatch(t, []int{2, 3}, indices(l.Latches()))
	assert.Equal(t, []int{1, 2, 3}, indices(l.Blocks()))
}

func TestIrreducibleNotALoop(t *testing.T) {
	// 0 → {1, 2}, 1 ⇄ 2: neither header dominates the other.
	fn := cfg(3, [2]int{0, 1}, [2]int{0, 2}, [2]int{1, 2}, [2]int{2, 1})
	assert.Equal(t, 0, Analyse(fn).Len())
}

func TestStablePreorder(t *testing.T) {
	fn := cfg(7,
		[2]int{0, 1}, [2]int{1, 2}, [2]int{1, 6},
		[2]int{2, 3}, [2]int{3, 4}, [2]int{4, 3}, [2]int{3, 5}, [2]int{5, 1})
	first := Analyse(fn)
	for i := 0; i < 10; i++ {
		again := Analyse(fn)
		require.Equal(t, first.Len(), again.Len())
		for j := range first.Loops() {
			assert.Same(t, first.Loops()[j].Header(), again.Loops()[j].Header())
			assert.Equal(t, indices(first.Loops()[j].Blocks()), indices(again.Loops()[j].Blocks()))
		}
	}
}

func TestGoNestedLoop(t *testing.T) {
	fn := lowerFunc(t, `package main
	func main() {
		s := 0
		for i := 0; i < 10; i++ {
			for j := 1; j < 9; j += 2 {
				s += j
			}
		}
		println(s)
	}`, "main.main")
	f := Analyse(fn)
	require.Equal(t, 2, f.Len())
	outer, inner := f.Loops()[0], f.Loops()[1]
	assert.Equal(t, "for.loop", outer.Header().Comment)
	assert.Equal(t, "for.loop", inner.Header().Comment)
	assert.Same(t, outer, inner.Parent())
	for _, b := range inner.Blocks() {
		assert.True(t, outer.Contains(b), "inner block %s not in outer loop", b.Name())
	}
	assert.Greater(t, outer.NumBlocks(), inner.NumBlocks())
}

func TestGoInfiniteLoop(t *testing.T) {
	fn := lowerFunc(t, `package main
	func main() {
		for i := 0; ; i++ {
			println(i)
		}
	}`, "main.main")
	f := Analyse(fn)
	require.Equal(t, 1, f.Len())
	assert.Equal(t, 1, f.Loops()[0].Depth())
}

func TestStack(t *testing.T) {
	s := NewStack()
	assert.True(t, s.IsEmpty())
	_, err := s.Pop()
	assert.Equal(t, ErrEmptyStack, err)

	fn := cfg(2)
	s.Push(fn.Blocks[0])
	s.Push(fn.Blocks[1])
	b, err := s.Pop()
	require.NoError(t, err)
	assert.Same(t, fn.Blocks[1], b)
	assert.False(t, s.IsEmpty())
}
