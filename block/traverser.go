// Package block provides traversals over the basic blocks of a function.
package block

import (
	"github.com/nickng/perforator/ir"
)

// TraverseEdges takes a Function and apply visit to each edge, breadth
// first from the entry block. Each block is entered once; the entry block
// is visited with a nil from.
func TraverseEdges(fn *ir.Function, visit func(from, to *ir.BasicBlock)) {
	if fn == nil || len(fn.Blocks) == 0 {
		return
	}
	type Edge struct {
		From, To *ir.BasicBlock
	}
	visited := make(map[*ir.BasicBlock]bool)
	queue := []Edge{{To: fn.Blocks[0]}}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if !visited[e.To] {
			visited[e.To] = true
			visit(e.From, e.To)
			for _, succ := range e.To.Succs {
				queue = append(queue, Edge{From: e.To, To: succ})
			}
		}
	}
}

// Reachable returns the set of blocks reachable from the entry block.
func Reachable(fn *ir.Function) map[*ir.BasicBlock]bool {
	reachable := make(map[*ir.BasicBlock]bool)
	TraverseEdges(fn, func(_, to *ir.BasicBlock) {
		reachable[to] = true
	})
	return reachable
}

// ReversePostorder returns the blocks reachable from the entry block in
// reverse postorder of a depth-first walk that follows successors in order.
func ReversePostorder(fn *ir.Function) []*ir.BasicBlock {
	if fn == nil || len(fn.Blocks) == 0 {
		return nil
	}
	type frame struct {
		b    *ir.BasicBlock
		next int // Next successor to explore.
	}
	var post []*ir.BasicBlock
	seen := map[*ir.BasicBlock]bool{fn.Blocks[0]: true}
	stack := []frame{{b: fn.Blocks[0]}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.b.Succs) {
			succ := top.b.Succs[top.next]
			top.next++
			if !seen[succ] {
				seen[succ] = true
				stack = append(stack, frame{b: succ})
			}
			continue
		}
		post = append(post, top.b)
		stack = stack[:len(stack)-1]
	}
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}
