package loop

import (
	"fmt"

	"github.com/nickng/perforator/ir"
)

// Loop is a natural loop in a function.
type Loop struct {
	header  *ir.BasicBlock
	latches []*ir.BasicBlock
	blocks  []*ir.BasicBlock // Member blocks ordered by index.
	members map[*ir.BasicBlock]bool

	parent   *Loop
	subloops []*Loop
	depth    int
}

// Header returns the loop header, the target of the back edges.
func (l *Loop) Header() *ir.BasicBlock { return l.header }

// Latches returns the sources of the back edges.
func (l *Loop) Latches() []*ir.BasicBlock { return l.latches }

// Blocks returns the member blocks of the loop, including those of its
// subloops, in block index order.
func (l *Loop) Blocks() []*ir.BasicBlock { return l.blocks }

// NumBlocks returns the number of member blocks.
func (l *Loop) NumBlocks() int { return len(l.blocks) }

// Contains returns true if b is a member block of l.
func (l *Loop) Contains(b *ir.BasicBlock) bool { return l.members[b] }

// Parent returns the immediately enclosing loop, or nil if l is outermost.
func (l *Loop) Parent() *Loop { return l.parent }

// Subloops returns the loops immediately nested in l.
func (l *Loop) Subloops() []*Loop { return l.subloops }

// Depth returns the nesting depth, 1 for an outermost loop.
func (l *Loop) Depth() int { return l.depth }

// IsInnermost returns true if l has no subloops.
func (l *Loop) IsInnermost() bool { return len(l.subloops) == 0 }

func (l *Loop) String() string {
	return fmt.Sprintf("loop@%s depth=%d blocks=%d", l.header.Name(), l.depth, len(l.blocks))
}

// Forest is the loop nest of a function.
type Forest struct {
	fn        *ir.Function
	top       []*Loop // Outermost loops ordered by header index.
	all       []*Loop // Preorder over top.
	innermost map[*ir.BasicBlock]*Loop
	dom       *DomTree
}

// Function returns the function the forest was computed for.
func (f *Forest) Function() *ir.Function { return f.fn }

// TopLevel returns the outermost loops ordered by header index.
func (f *Forest) TopLevel() []*Loop { return f.top }

// Loops returns every loop in preorder: each outermost loop in header order
// followed by its subloops, recursively. The order is stable for a given
// function.
func (f *Forest) Loops() []*Loop { return f.all }

// Len returns the number of loops.
func (f *Forest) Len() int { return len(f.all) }

// LoopFor returns the innermost loop containing b, or nil.
func (f *Forest) LoopFor(b *ir.BasicBlock) *Loop { return f.innermost[b] }

// Dominators returns the dominator tree used to find the loops.
func (f *Forest) Dominators() *DomTree { return f.dom }
