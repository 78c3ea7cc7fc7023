package pass

import (
	"bytes"
	"context"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/nickng/perforator/internal/logging"
	"github.com/nickng/perforator/ir"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of a pipeline on one function.
type Result struct {
	Function *ir.Function
	Changed  bool // Some pass invalidated the function's analyses.
}

// Pipeline runs a sequence of passes on each function.
type Pipeline struct {
	passes []Pass
	am     *AnalysisManager
	jobs   int
	logger *logging.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithJobs sets the number of functions processed concurrently.
// n <= 0 means runtime.NumCPU().
func WithJobs(n int) PipelineOption {
	return func(p *Pipeline) { p.jobs = n }
}

// WithAnalysisManager shares am with the pipeline.
func WithAnalysisManager(am *AnalysisManager) PipelineOption {
	return func(p *Pipeline) { p.am = am }
}

// WithPipelineLogger sets the logger of the pipeline.
func WithPipelineLogger(l *logging.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline returns a pipeline running passes in order.
func NewPipeline(passes []Pass, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{passes: passes}
	for _, opt := range opts {
		opt(p)
	}
	if p.am == nil {
		p.am = NewAnalysisManager(p.logger)
	}
	if p.jobs <= 0 {
		p.jobs = runtime.NumCPU()
	}
	p.logger = logging.OrNop(p.logger).Module("pipeline", color.FgYellow)
	return p
}

// AnalysisManager returns the analysis cache of the pipeline.
func (p *Pipeline) AnalysisManager() *AnalysisManager { return p.am }

// Run runs the pipeline on every function of fns and writes the output of
// the passes to out, in the order of fns. Cancelling ctx stops new
// functions from being scheduled.
func (p *Pipeline) Run(ctx context.Context, fns []*ir.Function, out io.Writer) ([]Result, error) {
	results := make([]Result, len(fns))
	bufs := make([]bytes.Buffer, len(fns))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(p.jobs)
	for i, fn := range fns {
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.runFunc(fn, &bufs[i])
			return nil
		})
	}
	err := group.Wait()

	for i := range bufs {
		if _, werr := bufs[i].WriteTo(out); werr != nil && err == nil {
			err = werr
		}
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return results, errors.Wrap(err, "pipeline interrupted")
	}
	return results, nil
}

func (p *Pipeline) runFunc(fn *ir.Function, out io.Writer) Result {
	res := Result{Function: fn}
	for _, pass := range p.passes {
		preserved := pass.Run(fn, p.am, out)
		p.logger.Debugf("%s %s: %s preserved %s", p.logger.Tag(), fn, pass.Name(), preserved)
		if preserved != PreserveAll {
			res.Changed = true
		}
		p.am.Invalidate(fn, preserved)
	}
	return res
}
