package ir

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Decorator rewrites the printed form of an instruction line.
type Decorator func(instr Instruction, line string) string

// WriteTo writes f to w in human readable form.
func (f *Function) WriteTo(w io.Writer) (int64, error) {
	return Fprint(w, f, nil)
}

// Fprint writes f to w, passing each instruction line through decorate if
// it is non-nil.
func Fprint(w io.Writer, f *Function, decorate Decorator) (int64, error) {
	var buf bytes.Buffer
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %s", p.Name(), p.Type())
	}
	fmt.Fprintf(&buf, "func %s(%s):\n", f.Name, strings.Join(params, ", "))
	for _, b := range f.Blocks {
		header := fmt.Sprintf("%d: %s", b.Index, b.Comment)
		fmt.Fprintf(&buf, "%-40s P:%d S:%d\n", header, len(b.Preds), len(b.Succs))
		for _, instr := range b.Instrs {
			line := FormatInstr(instr)
			if decorate != nil {
				line = decorate(instr, line)
			}
			fmt.Fprintf(&buf, "\t%s\n", line)
		}
	}
	buf.WriteString("\n")
	return buf.WriteTo(w)
}

// FormatInstr returns instr with its result register, e.g. "t3 = t2 + 1:int".
func FormatInstr(instr Instruction) string {
	if v, ok := instr.(Value); ok && v.Name() != "" {
		return fmt.Sprintf("%s = %s", v.Name(), instr.String())
	}
	return instr.String()
}
