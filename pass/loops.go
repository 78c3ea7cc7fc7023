package pass

import (
	"io"

	"github.com/nickng/perforator/ir"
	"github.com/nickng/perforator/perforate"
)

const (
	LoopCount       = "loop-count-pass"
	LoopPerforation = "loop-perforation-pass"
)

func init() {
	Register(LoopCount, func(Env) Pass { return loopCount{} })
	Register(LoopPerforation, func(env Env) Pass {
		return &loopPerforation{
			p: perforate.New(
				perforate.WithSelection(env.Selection),
				perforate.WithObserver(env.Observe),
				perforate.WithLogger(env.Logger),
			),
		}
	})
}

// loopCount reports the loop nest of a function.
type loopCount struct{}

func (loopCount) Name() string { return LoopCount }

func (loopCount) Run(fn *ir.Function, am *AnalysisManager, out io.Writer) Preserved {
	perforate.ReportLoops(out, fn, am.Loops(fn))
	return PreserveAll
}

// loopPerforation perforates the candidate loops of a function.
type loopPerforation struct {
	p *perforate.Perforator
}

func (*loopPerforation) Name() string { return LoopPerforation }

func (lp *loopPerforation) Run(fn *ir.Function, am *AnalysisManager, _ io.Writer) Preserved {
	if lp.p.Run(fn, am.Loops(fn)) {
		return PreserveNone
	}
	return PreserveAll
}
