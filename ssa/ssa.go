// Package ssa is a library to build and work with SSA.
// For most part the package contains helper or wrapper functions to use the
// packages in Go project's extra tools.
//
// In particular, the SSA IR is from golang.org/x/tools/go/ssa. Functions
// built here are the input to package lower, which translates them to the
// loop-analysis IR.
package ssa

import (
	"go/token"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
)

var (
	ErrNoMainPkgs   = errors.New("no main packages")
	ErrFuncNotFound = errors.New("function not found")
)

// Info holds the results of a SSA build for analysis.
// To populate this structure, the 'build' subpackage should be used.
type Info struct {
	FSet *token.FileSet // FileSet for parsed source files.
	Prog *ssa.Program   // SSA IR for whole program.
	Pkgs []*ssa.Package // Packages built from source.

	BldLog io.Writer // Build log.
}
