package main

import (
	"fmt"
	"io"

	"github.com/nickng/perforator/block"
	"github.com/nickng/perforator/ir"
	"github.com/nickng/perforator/ssa"
	"github.com/spf13/cobra"
)

func newViewCmd(a *app) *cobra.Command {
	var showSSA, showEdges bool
	cmd := &cobra.Command{
		Use:   "view file.go [files.go...]",
		Short: "Print the lowered IR of each function",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if showSSA {
				info, err := a.build(args)
				if err != nil {
					return err
				}
				fns, err := info.FindFuncs(a.cfg.Funcs...)
				if err != nil {
					return err
				}
				_, err = ssa.WriteFuncs(out, fns)
				return err
			}
			fns, err := a.lower(args)
			if err != nil {
				return err
			}
			for _, fn := range fns {
				if showEdges {
					writeEdges(out, fn)
					continue
				}
				if _, err := ir.Fprint(out, fn, nil); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSSA, "ssa", false, "print the SSA form instead of the lowered IR")
	cmd.Flags().BoolVar(&showEdges, "edges", false, "print the control-flow edges instead of the instructions")
	return cmd
}

// writeEdges writes the control-flow edges of fn breadth first, then the
// blocks that cannot be reached from the entry.
func writeEdges(w io.Writer, fn *ir.Function) {
	fmt.Fprintf(w, "func %s:\n", fn.Name)
	block.TraverseEdges(fn, func(_, b *ir.BasicBlock) {
		for _, succ := range b.Succs {
			fmt.Fprintf(w, "\t%s → %s\n", b.Name(), succ.Name())
		}
	})
	reachable := block.Reachable(fn)
	for _, b := range fn.Blocks {
		if !reachable[b] {
			fmt.Fprintf(w, "\t%s unreachable\n", b.Name())
		}
	}
}
