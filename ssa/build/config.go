package build

import (
	"go/ast"
	"go/importer"
	"go/token"
	"go/types"
	"io"
	"io/ioutil"
	"log"

	"github.com/nickng/perforator/ssa"
	"github.com/pkg/errors"
	gossa "golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

var (
	ErrNoSource  = errors.New("no source files")
	ErrMixedPkgs = errors.New("source files belong to different packages")
)

// srcParser is a wrapper for source code which can be parsed into files.
type srcParser interface {
	Parse(fset *token.FileSet) ([]*ast.File, error)
}

type Configurer interface {
	Builder
	Default() Configurer
	WithMode(mode gossa.BuilderMode) Configurer
	WithBuildLog(l io.Writer, flags int) Configurer
}

// Config represents a build configuration.
type Config struct {
	mode gossa.BuilderMode

	bldLog    io.Writer // Build log.
	bldLFlags int       // Build log flags.

	src srcParser // src points to the program source.
}

func newConfig(src srcParser) *Config {
	return &Config{
		bldLog:    ioutil.Discard,
		bldLFlags: log.LstdFlags,
		src:       src,
	}
}

// WithBuildLog adds build log to config.
func (c *Config) WithBuildLog(l io.Writer, flags int) Configurer {
	c.bldLog = l
	c.bldLFlags = flags
	return c
}

// WithMode adds mode to the SSA builder mode.
func (c *Config) WithMode(mode gossa.BuilderMode) Configurer {
	c.mode |= mode
	return c
}

func (c *Config) Build() (*ssa.Info, error) {
	bldLog := log.New(c.bldLog, "ssabuild: ", c.bldLFlags)

	fset := token.NewFileSet()
	files, err := c.src.Parse(fset)
	if err != nil {
		return nil, err
	}
	name := files[0].Name.Name
	for _, f := range files[1:] {
		if f.Name.Name != name {
			return nil, errors.Wrapf(ErrMixedPkgs, "%s and %s", name, f.Name.Name)
		}
	}
	bldLog.Printf("Parsed %d file(s) of package %s", len(files), name)

	// Load, type-check and build the source package.
	tc := &types.Config{Importer: importer.Default()}
	pkg, _, err := ssautil.BuildPackage(tc, fset, types.NewPackage(name, name), files, c.mode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build SSA")
	}
	bldLog.Print("Program loaded and type checked")

	return &ssa.Info{
		FSet:   fset,
		Prog:   pkg.Prog,
		Pkgs:   []*gossa.Package{pkg},
		BldLog: c.bldLog,
	}, nil
}

// Default returns a default configuration for loop analysis: generic
// functions are instantiated so their loops see concrete integer types.
func (c *Config) Default() Configurer {
	return c.WithMode(gossa.InstantiateGenerics)
}
