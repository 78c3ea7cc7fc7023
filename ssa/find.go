package ssa

import (
	"go/types"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Funcs returns the Functions with a body defined in the source packages,
// including methods and closures, ordered by source position.
// A generic function that has instances is replaced by its instances.
func (info *Info) Funcs() []*ssa.Function {
	all := info.allFuncs()
	instantiated := make(map[*ssa.Function]bool)
	for f := range all {
		if isInstance(f) {
			instantiated[f.Origin()] = true
		}
	}
	var fns []*ssa.Function
	for f := range all {
		if f.Blocks == nil || (f.Synthetic != "" && !isInstance(f)) {
			continue
		}
		if top := topLevel(f); top.Origin() == nil && top.TypeParams().Len() > 0 && instantiated[top] {
			continue
		}
		if pkg := pkgOf(f); pkg == nil || !info.built(pkg) {
			continue
		}
		fns = append(fns, f)
	}
	sort.Slice(fns, func(i, j int) bool {
		if fns[i].Pos() != fns[j].Pos() {
			return fns[i].Pos() < fns[j].Pos()
		}
		return fns[i].String() < fns[j].String()
	})
	return fns
}

// allFuncs returns the functions reachable from the package members,
// including methods of declared types that never become runtime types.
func (info *Info) allFuncs() map[*ssa.Function]bool {
	fns := ssautil.AllFunctions(info.Prog)
	var visit func(f *ssa.Function)
	visit = func(f *ssa.Function) {
		if f == nil || fns[f] {
			return
		}
		fns[f] = true
		for _, anon := range f.AnonFuncs {
			visit(anon)
		}
	}
	for _, pkg := range info.Pkgs {
		for _, mem := range pkg.Members {
			typ, ok := mem.(*ssa.Type)
			if !ok {
				continue
			}
			if named, ok := typ.Type().(*types.Named); ok && named.TypeParams().Len() > 0 {
				continue
			}
			for _, T := range []types.Type{typ.Type(), types.NewPointer(typ.Type())} {
				mset := info.Prog.MethodSets.MethodSet(T)
				for i := 0; i < mset.Len(); i++ {
					visit(info.Prog.MethodValue(mset.At(i)))
				}
			}
		}
	}
	return fns
}

// FindFuncs parses each path (e.g. "github.com/nickng/perforator/ssa".Funcs
// or main.sum) and returns the matching Function bodies in SSA IR, in the
// order of Funcs. No paths selects every function.
func (info *Info) FindFuncs(paths ...string) ([]*ssa.Function, error) {
	all := info.Funcs()
	if len(paths) == 0 {
		return all, nil
	}
	selected := make(map[*ssa.Function]bool)
	for _, path := range paths {
		found := false
		pkgPath, fnName := parseFuncPath(path)
		for _, f := range all {
			if f.String() == path || (baseName(f) == fnName && (pkgPath == "" || pkgOf(f).Pkg.Path() == pkgPath)) {
				selected[f] = true
				found = true
			}
		}
		if !found {
			return nil, errors.Wrapf(ErrFuncNotFound, "%s", path)
		}
	}
	var fns []*ssa.Function
	for _, f := range all {
		if selected[f] {
			fns = append(fns, f)
		}
	}
	return fns, nil
}

// isInstance reports whether f is a generic function instantiated with
// concrete type arguments, as opposed to an instantiation wrapper.
func isInstance(f *ssa.Function) bool {
	return f.Origin() != nil && strings.HasPrefix(f.Synthetic, "instance of ")
}

// topLevel returns the outermost function enclosing f.
func topLevel(f *ssa.Function) *ssa.Function {
	for f.Parent() != nil {
		f = f.Parent()
	}
	return f
}

// pkgOf returns the package declaring f. Instances and their closures have
// no package of their own and belong to the package of their origin.
func pkgOf(f *ssa.Function) *ssa.Package {
	for ; f != nil; f = f.Parent() {
		if f.Pkg != nil {
			return f.Pkg
		}
		if orig := f.Origin(); orig != nil && orig.Pkg != nil {
			return orig.Pkg
		}
	}
	return nil
}

// baseName returns the name of f without type arguments.
func baseName(f *ssa.Function) string {
	if orig := f.Origin(); orig != nil {
		return orig.Name()
	}
	return f.Name()
}

// parseFuncPath splits path to package and function segments.
// Does not handle complex functions with receivers.
func parseFuncPath(path string) (pkgPath, fnName string) {
	if len(path) < 1 {
		return "", ""
	}
	switch path[0] {
	case '(':
		regex := regexp.MustCompile(`\((?P<pkg>[^)]+)\).(?P<fn>.+)`)
		submatches := regex.FindStringSubmatch(path)
		if len(submatches) >= 3 {
			return submatches[1], submatches[2]
		}
	case '"':
		regex := regexp.MustCompile(`"(?P<pkg>[^)]+)".(?P<fn>.+)`)
		submatches := regex.FindStringSubmatch(path)
		if len(submatches) >= 3 {
			return submatches[1], submatches[2]
		}
	default:
		if i := strings.LastIndex(path, "."); i >= 0 {
			return path[:i], path[i+1:]
		}
	}
	return "", path
}
