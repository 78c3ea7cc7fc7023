package ssa

import (
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// MainPkgs returns the main packages among the packages built from source.
func (info *Info) MainPkgs() ([]*ssa.Package, error) {
	mains := ssautil.MainPackages(info.Pkgs)
	if len(mains) == 0 {
		return nil, ErrNoMainPkgs
	}
	return mains, nil
}

// built returns true if pkg was built from source.
func (info *Info) built(pkg *ssa.Package) bool {
	for _, p := range info.Pkgs {
		if p == pkg {
			return true
		}
	}
	return false
}
