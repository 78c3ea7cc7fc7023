package ssa

import (
	"io"

	"golang.org/x/tools/go/ssa"
)

// WriteTo writes Functions defined in the source packages to w in human
// readable SSA IR instruction format.
func (info *Info) WriteTo(w io.Writer) (int64, error) {
	return WriteFuncs(w, info.Funcs())
}

// WriteFuncs writes fns to w in human readable SSA IR instruction format.
func WriteFuncs(w io.Writer, fns []*ssa.Function) (int64, error) {
	var n int64
	for _, f := range fns {
		written, err := f.WriteTo(w)
		if err != nil {
			return n, err
		}
		n += written
	}
	return n, nil
}
