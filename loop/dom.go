package loop

import (
	"github.com/nickng/perforator/block"
	"github.com/nickng/perforator/ir"
)

// DomTree is the dominator tree of the blocks reachable from the entry of a
// function.
type DomTree struct {
	rpo  []*ir.BasicBlock
	num  map[*ir.BasicBlock]int // Position in rpo.
	idom map[*ir.BasicBlock]*ir.BasicBlock
}

// Dominators computes the dominator tree of fn with the iterative algorithm
// of Cooper, Harvey and Kennedy over a reverse postorder.
func Dominators(fn *ir.Function) *DomTree {
	t := &DomTree{
		rpo:  block.ReversePostorder(fn),
		num:  make(map[*ir.BasicBlock]int),
		idom: make(map[*ir.BasicBlock]*ir.BasicBlock),
	}
	if len(t.rpo) == 0 {
		return t
	}
	for i, b := range t.rpo {
		t.num[b] = i
	}
	entry := t.rpo[0]
	t.idom[entry] = entry

	for changed := true; changed; {
		changed = false
		for _, b := range t.rpo[1:] {
			var idom *ir.BasicBlock
			for _, pred := range b.Preds {
				if _, done := t.idom[pred]; !done {
					continue // Unreachable or not yet processed.
				}
				if idom == nil {
					idom = pred
				} else {
					idom = t.intersect(pred, idom)
				}
			}
			if idom != nil && t.idom[b] != idom {
				t.idom[b] = idom
				changed = true
			}
		}
	}
	return t
}

func (t *DomTree) intersect(a, b *ir.BasicBlock) *ir.BasicBlock {
	for a != b {
		for t.num[a] > t.num[b] {
			a = t.idom[a]
		}
		for t.num[b] > t.num[a] {
			b = t.idom[b]
		}
	}
	return a
}

// Reachable returns true if b is reachable from the entry block.
func (t *DomTree) Reachable(b *ir.BasicBlock) bool {
	_, ok := t.num[b]
	return ok
}

// Idom returns the immediate dominator of b, or nil for the entry block and
// unreachable blocks.
func (t *DomTree) Idom(b *ir.BasicBlock) *ir.BasicBlock {
	idom, ok := t.idom[b]
	if !ok || idom == b {
		return nil
	}
	return idom
}

// Dominates returns true if every path from the entry to b passes through
// a. A block dominates itself. Unreachable blocks dominate nothing and are
// dominated by nothing.
func (t *DomTree) Dominates(a, b *ir.BasicBlock) bool {
	if !t.Reachable(a) || !t.Reachable(b) {
		return false
	}
	for {
		if a == b {
			return true
		}
		next := t.idom[b]
		if next == b {
			return false
		}
		b = next
	}
}

// ReversePostorder returns the reachable blocks in the order used to
// compute the tree.
func (t *DomTree) ReversePostorder() []*ir.BasicBlock { return t.rpo }
