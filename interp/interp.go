// Package interp executes lowered functions on scalar arguments.
//
// It is used to measure the effect of a transformation: the same function is
// run before and after, and the results and instruction counts compared.
// Only the modelled part of the IR runs. Integers are int64 wrapped to the
// width of their type, floats are float64 and booleans are bool. An Opaque
// instruction or a reference to a Global stops execution with
// ErrUnsupported.
package interp

import (
	"github.com/fatih/color"
	"github.com/nickng/perforator/internal/logging"
	"github.com/nickng/perforator/ir"
	"github.com/pkg/errors"
)

var (
	ErrUnsupported  = errors.New("unsupported instruction")
	ErrStepLimit    = errors.New("step limit exceeded")
	ErrDivideByZero = errors.New("integer divide by zero")
	ErrBadArgs      = errors.New("bad arguments")
)

// DefaultMaxSteps is the step limit of an Interpreter by default.
const DefaultMaxSteps = 1 << 24

// Stats counts the work done by a call.
type Stats struct {
	Steps  int // Instructions executed.
	Blocks int // Blocks entered.
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMaxSteps limits the number of instructions executed by a call.
func WithMaxSteps(n int) Option {
	return func(in *Interpreter) { in.maxSteps = n }
}

// WithLogger sets the logger for execution traces.
func WithLogger(l *logging.Logger) Option {
	return func(in *Interpreter) { in.logger = logging.OrNop(l).Module("interp", color.FgBlue) }
}

// Interpreter runs functions.
type Interpreter struct {
	maxSteps int
	logger   *logging.Logger
}

// New returns an Interpreter.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{maxSteps: DefaultMaxSteps, logger: logging.Nop()}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// frame is the state of one call.
type frame struct {
	fn    *ir.Function
	env   map[ir.Value]value
	stats Stats
	max   int
}

// Call runs fn on args and returns its results. Arguments may be any Go
// integer, float or bool; results are int64, float64 or bool.
func (in *Interpreter) Call(fn *ir.Function, args ...any) ([]any, Stats, error) {
	if fn == nil || len(fn.Blocks) == 0 {
		return nil, Stats{}, errors.Wrap(ErrUnsupported, "function has no body")
	}
	if len(args) != len(fn.Params) {
		return nil, Stats{}, errors.Wrapf(ErrBadArgs, "%s takes %d arguments, got %d", fn, len(fn.Params), len(args))
	}
	fr := &frame{fn: fn, env: make(map[ir.Value]value), max: in.maxSteps}
	for i, p := range fn.Params {
		v, err := fromGo(args[i], p.Type())
		if err != nil {
			return nil, Stats{}, errors.Wrapf(err, "argument %s", p.Name())
		}
		fr.env[p] = v
	}
	results, err := fr.run()
	in.logger.Debugf("%s %s: %d steps, %d blocks", in.logger.Tag(), fn, fr.stats.Steps, fr.stats.Blocks)
	if err != nil {
		return nil, fr.stats, errors.Wrap(err, fn.Name)
	}
	out := make([]any, len(results))
	for i, r := range results {
		out[i] = r.toGo()
	}
	return out, fr.stats, nil
}

func (fr *frame) run() ([]value, error) {
	var prev *ir.BasicBlock
	b := fr.fn.Blocks[0]
	for {
		fr.stats.Blocks++
		if err := fr.phis(prev, b); err != nil {
			return nil, err
		}
		next, results, done, err := fr.block(b)
		if err != nil || done {
			return results, err
		}
		prev, b = b, next
	}
}

// phis assigns all phi nodes at the head of b at once, for the edge prev → b.
func (fr *frame) phis(prev, b *ir.BasicBlock) error {
	pred := -1
	for i, p := range b.Preds {
		if p == prev {
			pred = i
			break
		}
	}
	assign := make(map[ir.Value]value)
	for _, instr := range b.Instrs {
		phi, ok := instr.(*ir.Phi)
		if !ok {
			break
		}
		if err := fr.step(); err != nil {
			return err
		}
		if pred < 0 || pred >= len(phi.Edges) {
			return errors.Errorf("%s: no edge into block %d", phi.Name(), b.Index)
		}
		v, err := fr.eval(phi.Edges[pred])
		if err != nil {
			return err
		}
		assign[phi] = v
	}
	for phi, v := range assign {
		fr.env[phi] = v
	}
	return nil
}

// block executes the non-phi instructions of b. It returns the successor
// block, or the results and done if b returned.
func (fr *frame) block(b *ir.BasicBlock) (*ir.BasicBlock, []value, bool, error) {
	for _, instr := range b.Instrs {
		if _, ok := instr.(*ir.Phi); ok {
			continue
		}
		if err := fr.step(); err != nil {
			return nil, nil, false, err
		}
		switch instr := instr.(type) {
		case *ir.BinOp:
			x, err := fr.eval(instr.X)
			if err != nil {
				return nil, nil, false, err
			}
			y, err := fr.eval(instr.Y)
			if err != nil {
				return nil, nil, false, err
			}
			v, err := binop(instr.Op, instr.X.Type(), instr.Y.Type(), instr.Type(), x, y)
			if err != nil {
				return nil, nil, false, errors.Wrap(err, instr.Name())
			}
			fr.env[instr] = v

		case *ir.UnOp:
			x, err := fr.eval(instr.X)
			if err != nil {
				return nil, nil, false, err
			}
			v, err := unop(instr.Op, instr.Type(), x)
			if err != nil {
				return nil, nil, false, errors.Wrap(err, instr.Name())
			}
			fr.env[instr] = v

		case *ir.If:
			cond, err := fr.eval(instr.Cond)
			if err != nil {
				return nil, nil, false, err
			}
			if len(b.Succs) != 2 {
				return nil, nil, false, errors.Errorf("block %d: if needs 2 successors, has %d", b.Index, len(b.Succs))
			}
			if cond.b {
				return b.Succs[0], nil, false, nil
			}
			return b.Succs[1], nil, false, nil

		case *ir.Jump:
			if len(b.Succs) != 1 {
				return nil, nil, false, errors.Errorf("block %d: jump needs 1 successor, has %d", b.Index, len(b.Succs))
			}
			return b.Succs[0], nil, false, nil

		case *ir.Return:
			results := make([]value, len(instr.Results))
			for i, r := range instr.Results {
				v, err := fr.eval(r)
				if err != nil {
					return nil, nil, false, err
				}
				results[i] = v
			}
			return nil, results, true, nil

		case *ir.Opaque:
			return nil, nil, false, errors.Wrapf(ErrUnsupported, "%q", instr.Text)
		}
	}
	return nil, nil, false, errors.Errorf("block %d: no terminator", b.Index)
}

func (fr *frame) step() error {
	fr.stats.Steps++
	if fr.max > 0 && fr.stats.Steps > fr.max {
		return errors.Wrapf(ErrStepLimit, "after %d steps", fr.max)
	}
	return nil
}

func (fr *frame) eval(v ir.Value) (value, error) {
	switch v := v.(type) {
	case *ir.Const:
		return constValue(v)
	case *ir.Global:
		return value{}, errors.Wrapf(ErrUnsupported, "reference to %s", v.Name())
	case nil:
		return value{}, errors.New("nil operand")
	}
	x, ok := fr.env[v]
	if !ok {
		return value{}, errors.Errorf("%s used before definition", v.Name())
	}
	return x, nil
}
