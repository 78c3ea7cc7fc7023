package perforate

import (
	"fmt"
	"io"

	"github.com/nickng/perforator/ir"
	"github.com/nickng/perforator/loop"
)

// ReportLoops writes the nesting depth and block count of every loop in
// forest to w, followed by the number of loops. It does not change fn.
func ReportLoops(w io.Writer, fn *ir.Function, forest *loop.Forest) {
	name := ""
	if fn != nil {
		name = fn.Name
	}
	fmt.Fprintf(w, "Function %q has the following loops:\n", name)
	count := 0
	if forest != nil {
		for _, l := range forest.Loops() {
			count++
			fmt.Fprintf(w, "Loop level %d with %d blocks.\n", l.Depth(), l.NumBlocks())
		}
	}
	fmt.Fprintf(w, "Total loops found: %d\n", count)
}
