package build

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"io/ioutil"

	"github.com/nickng/perforator/ssa"
	"github.com/pkg/errors"
)

// Builder builds SSA IR and metainfo.
type Builder interface {
	Build() (*ssa.Info, error)
}

// FileSrc is a set of filenames.
type FileSrc struct {
	Files []string
}

// FromFiles returns a non-nil Builder from a slice of filenames.
func FromFiles(files []string) Configurer {
	return newConfig(&FileSrc{Files: files})
}

// Parse parses all files into fset.
func (s *FileSrc) Parse(fset *token.FileSet) ([]*ast.File, error) {
	if len(s.Files) == 0 {
		return nil, ErrNoSource
	}
	var files []*ast.File
	for _, name := range s.Files {
		f, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse file: %s", name)
		}
		files = append(files, f)
	}
	return files, nil
}

// CachedSrc is source file from a reader.
type CachedSrc struct {
	cached []byte
	err    error
}

// FromReader returns a non-nil Builder for a reader.
// This is typically used for testing or building a temporary file.
func FromReader(r io.Reader) Configurer {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		err = errors.Wrap(err, "failed to read from reader")
	}
	return newConfig(&CachedSrc{cached: b, err: err})
}

// Parse parses the cached content as a single file.
func (s *CachedSrc) Parse(fset *token.FileSet) ([]*ast.File, error) {
	if s.err != nil {
		return nil, s.err
	}
	f, err := parser.ParseFile(fset, "tmp.go", s.cached, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse source")
	}
	return []*ast.File{f}, nil
}
