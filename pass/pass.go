// Package pass runs function passes over lowered functions.
//
// A Pass inspects or rewrites one function at a time. Analyses shared
// between passes (the loop forest) are cached by an AnalysisManager and
// dropped when a pass reports that it changed the function.
package pass

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/nickng/perforator/internal/logging"
	"github.com/nickng/perforator/ir"
	"github.com/nickng/perforator/perforate"
	"github.com/pkg/errors"
)

var ErrUnknownPass = errors.New("unknown pass")

// Preserved tells the AnalysisManager which analyses survive a pass.
type Preserved int

const (
	// PreserveNone invalidates all cached analyses of the function.
	PreserveNone Preserved = iota
	// PreserveAll keeps all cached analyses of the function.
	PreserveAll
)

func (p Preserved) String() string {
	if p == PreserveAll {
		return "all"
	}
	return "none"
}

// Pass is a transformation or analysis of a single function.
type Pass interface {
	Name() string

	// Run runs the pass on fn, writing any report to out.
	Run(fn *ir.Function, am *AnalysisManager, out io.Writer) Preserved
}

// Env is what a Factory may use to set up a Pass.
type Env struct {
	Logger    *logging.Logger
	Selection perforate.Selection

	// Observe is called for every perforated instruction. Passes on different
	// functions may call it concurrently.
	Observe func(perforate.Site)
}

// Factory creates a Pass.
type Factory func(env Env) Pass

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a pass available by name. It panics if name is registered
// twice.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f == nil {
		panic("pass: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("pass: Register called twice for " + name)
	}
	registry[name] = f
}

// Lookup returns a new instance of the pass called name.
func Lookup(name string, env Env) (Pass, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPass, "%q", name)
	}
	return f(env), nil
}

// Names returns the sorted names of the registered passes.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParsePipeline parses a comma-separated list of pass names.
func ParsePipeline(pipeline string, env Env) ([]Pass, error) {
	var passes []Pass
	for _, name := range strings.Split(pipeline, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, err := Lookup(name, env)
		if err != nil {
			return nil, errors.Wrap(err, "cannot parse pipeline")
		}
		passes = append(passes, p)
	}
	if len(passes) == 0 {
		return nil, errors.Wrapf(ErrUnknownPass, "empty pipeline %q", pipeline)
	}
	return passes, nil
}
