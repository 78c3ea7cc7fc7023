package loop

import (
	"sort"

	"github.com/fatih/color"
	"github.com/nickng/perforator/internal/logging"
	"github.com/nickng/perforator/ir"
)

// Detector finds the loop nest of functions.
type Detector struct {
	logger *logging.Logger
}

func NewDetector() *Detector {
	return &Detector{logger: logging.Nop()}
}

// SetLogger sets the logger for detection diagnostics.
func (d *Detector) SetLogger(l *logging.Logger) {
	d.logger = logging.OrNop(l).Module("loop", color.FgCyan)
}

// Analyse returns the loop forest of fn.
func Analyse(fn *ir.Function) *Forest {
	return NewDetector().Detect(fn)
}

// Detect returns the loop forest of fn. A nil or empty function has an
// empty forest.
func (d *Detector) Detect(fn *ir.Function) *Forest {
	f := &Forest{fn: fn, innermost: make(map[*ir.BasicBlock]*Loop)}
	if fn == nil {
		f.dom = &DomTree{}
		return f
	}
	f.dom = Dominators(fn)

	// Back edges latch → header, grouped by header in reverse postorder.
	var loops []*Loop
	byHeader := make(map[*ir.BasicBlock]*Loop)
	for _, header := range f.dom.ReversePostorder() {
		for _, latch := range header.Preds {
			if !f.dom.Dominates(header, latch) {
				continue
			}
			d.logger.Debugf("%s %s: back edge #%d → #%d", d.logger.Tag(), fn, latch.Index, header.Index)
			l, exists := byHeader[header]
			if !exists {
				l = &Loop{header: header, members: map[*ir.BasicBlock]bool{header: true}}
				byHeader[header] = l
				loops = append(loops, l)
			}
			l.latches = append(l.latches, latch)
		}
	}

	for _, l := range loops {
		d.collectBody(l, f.dom)
	}
	d.nest(f, loops)
	return f
}

// collectBody adds to l every block that reaches one of its latches without
// passing through the header.
func (d *Detector) collectBody(l *Loop, dom *DomTree) {
	work := NewStack()
	for _, latch := range l.latches {
		work.Push(latch)
	}
	for !work.IsEmpty() {
		b, _ := work.Pop()
		if l.members[b] {
			continue
		}
		l.members[b] = true
		for _, pred := range b.Preds {
			if dom.Reachable(pred) {
				work.Push(pred)
			}
		}
	}
	for b := range l.members {
		l.blocks = append(l.blocks, b)
	}
	sort.Slice(l.blocks, func(i, j int) bool { return l.blocks[i].Index < l.blocks[j].Index })
}

// nest links each loop to the smallest loop containing its header.
func (d *Detector) nest(f *Forest, loops []*Loop) {
	bySize := make([]*Loop, len(loops))
	copy(bySize, loops)
	sort.SliceStable(bySize, func(i, j int) bool { return len(bySize[i].blocks) < len(bySize[j].blocks) })
	for i, l := range bySize {
		for _, outer := range bySize[i+1:] {
			if outer.members[l.header] {
				l.parent = outer
				outer.subloops = append(outer.subloops, l)
				break
			}
		}
		if l.parent == nil {
			f.top = append(f.top, l)
		}
	}

	byIndex := func(ls []*Loop) {
		sort.Slice(ls, func(i, j int) bool { return ls[i].header.Index < ls[j].header.Index })
	}
	byIndex(f.top)
	var visit func(l *Loop, depth int)
	visit = func(l *Loop, depth int) {
		l.depth = depth
		f.all = append(f.all, l)
		for _, b := range l.blocks {
			f.innermost[b] = l // Deeper loops are visited later.
		}
		byIndex(l.subloops)
		for _, sub := range l.subloops {
			visit(sub, depth+1)
		}
	}
	for _, l := range f.top {
		visit(l, 1)
	}
	for _, l := range f.all {
		d.logger.Debugf("%s %s: %s", d.logger.Tag(), f.fn, l)
	}
}
