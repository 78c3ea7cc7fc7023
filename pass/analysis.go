package pass

import (
	"sync"

	"github.com/fatih/color"
	"github.com/nickng/perforator/internal/logging"
	"github.com/nickng/perforator/ir"
	"github.com/nickng/perforator/loop"
)

// AnalysisManager caches the loop forest of functions.
// It is safe for concurrent use by passes on different functions.
type AnalysisManager struct {
	mu       sync.Mutex
	forests  map[*ir.Function]*loop.Forest
	computed int

	detector *loop.Detector
	logger   *logging.Logger
}

// NewAnalysisManager returns an empty AnalysisManager.
func NewAnalysisManager(logger *logging.Logger) *AnalysisManager {
	d := loop.NewDetector()
	d.SetLogger(logger)
	return &AnalysisManager{
		forests:  make(map[*ir.Function]*loop.Forest),
		detector: d,
		logger:   logging.OrNop(logger).Module("analysis", color.FgMagenta),
	}
}

// Loops returns the loop forest of fn, computing it if it is not cached.
func (am *AnalysisManager) Loops(fn *ir.Function) *loop.Forest {
	am.mu.Lock()
	if f, ok := am.forests[fn]; ok {
		am.mu.Unlock()
		return f
	}
	am.mu.Unlock()

	f := am.detector.Detect(fn)

	am.mu.Lock()
	defer am.mu.Unlock()
	am.forests[fn] = f
	am.computed++
	am.logger.Debugf("%s %s: %d loops", am.logger.Tag(), fn, f.Len())
	return f
}

// Invalidate drops the cached analyses of fn unless p preserves them.
func (am *AnalysisManager) Invalidate(fn *ir.Function, p Preserved) {
	if p == PreserveAll {
		return
	}
	am.mu.Lock()
	defer am.mu.Unlock()
	if _, ok := am.forests[fn]; ok {
		am.logger.Debugf("%s %s: invalidated", am.logger.Tag(), fn)
	}
	delete(am.forests, fn)
}

// Computed returns the number of loop forests computed so far.
func (am *AnalysisManager) Computed() int {
	am.mu.Lock()
	defer am.mu.Unlock()
	return am.computed
}
