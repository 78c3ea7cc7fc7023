// Package perforate implements loop perforation: it widens the step of the
// induction-variable increment of selected loops from 1 to 2, so that the
// loops skip every other iteration.
//
// Matching is a pattern, not a proof. Every integer addition of the constant
// 1 in the blocks of a candidate loop is treated as an induction-variable
// update and widened. Conditional branches are never touched.
package perforate

import (
	"go/token"

	"github.com/fatih/color"
	"github.com/nickng/perforator/internal/logging"
	"github.com/nickng/perforator/ir"
	"github.com/nickng/perforator/loop"
)

const (
	unitStep       = 1
	perforatedStep = 2
)

// Site is a perforated instruction.
type Site struct {
	Function string `yaml:"function"`
	Loop     string `yaml:"loop"`  // Header block of the candidate loop.
	Block    string `yaml:"block"` // Block holding the instruction.
	Instr    string `yaml:"instr"` // Result register of the instruction.
	Before   int64  `yaml:"before"`
	After    int64  `yaml:"after"`

	Add *ir.BinOp `yaml:"-"`
}

// Option configures a Perforator.
type Option func(*Perforator)

// WithSelection sets which loops are candidates.
func WithSelection(s Selection) Option {
	return func(p *Perforator) { p.selection = s }
}

// WithObserver calls observe for every perforated instruction.
func WithObserver(observe func(Site)) Option {
	return func(p *Perforator) { p.observe = observe }
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(p *Perforator) { p.logger = logging.OrNop(l).Module("perforate", color.FgGreen) }
}

// Perforator rewrites the induction-variable increments of candidate loops.
type Perforator struct {
	selection Selection
	observe   func(Site)
	logger    *logging.Logger
}

// New returns a Perforator. The default selection is SelectTopLevel.
func New(opts ...Option) *Perforator {
	p := &Perforator{selection: SelectTopLevel, logger: logging.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Perforate perforates the loops of fn with the default options.
func Perforate(fn *ir.Function, forest *loop.Forest) bool {
	return New().Run(fn, forest)
}

// Run perforates every candidate loop of forest, which must be the loop
// forest of fn. It returns true if any instruction was changed, in which case
// analyses of fn (including forest) are stale.
func (p *Perforator) Run(fn *ir.Function, forest *loop.Forest) bool {
	if fn == nil || forest == nil {
		return false
	}
	changed := false
	for _, l := range forest.Loops() {
		if !p.selection.candidate(l) {
			continue
		}
		for _, b := range l.Blocks() {
			for _, instr := range b.Instrs {
				if p.visit(fn, l, b, instr) {
					changed = true
				}
			}
		}
	}
	return changed
}

// visit perforates instr if it is an induction-variable increment.
func (p *Perforator) visit(fn *ir.Function, l *loop.Loop, b *ir.BasicBlock, instr ir.Instruction) bool {
	switch instr := instr.(type) {
	case *ir.If:
		return false // Loop exit tests are left alone.
	case *ir.BinOp:
		return p.widen(fn, l, b, instr)
	case *ir.Jump, *ir.Return, *ir.Phi, *ir.UnOp, *ir.Opaque:
		return false
	}
	return false
}

// widen rewrites add = x + 1 to add = x + 2 in place.
func (p *Perforator) widen(fn *ir.Function, l *loop.Loop, b *ir.BasicBlock, add *ir.BinOp) bool {
	if add.Op != token.ADD {
		return false
	}
	rands := add.Operands(nil)
	step := *rands[1]
	if step == nil || !ir.IsInteger(step.Type()) {
		return false
	}
	c, ok := step.(*ir.Const)
	if !ok || !c.IsInt(unitStep) {
		return false
	}
	*rands[1] = ir.IntConst(perforatedStep, c.Type())

	site := Site{
		Function: fn.Name,
		Loop:     l.Header().Name(),
		Block:    b.Name(),
		Instr:    add.Name(),
		Before:   unitStep,
		After:    perforatedStep,
		Add:      add,
	}
	p.logger.Debugf("%s %s: %s in %s: step %d → %d", p.logger.Tag(), site.Function, site.Instr, site.Block, site.Before, site.After)
	if p.observe != nil {
		p.observe(site)
	}
	return true
}
