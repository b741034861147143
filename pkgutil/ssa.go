package pkgutil

import (
	"fmt"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// BuildSSA builds the SSA program of the loaded packages and returns it with
// the SSA package of the first loaded package.
func BuildSSA(pkgs []*packages.Package, mode ssa.BuilderMode) (*ssa.Program, *ssa.Package, error) {
	prog, spkgs := ssautil.AllPackages(pkgs, mode)
	prog.Build()

	for _, p := range spkgs {
		if p != nil {
			return prog, p, nil
		}
	}
	return prog, nil, fmt.Errorf("no package among %d loaded packages was built", len(pkgs))
}

// BuildSSAFromSource loads a single-file main package and builds its SSA
// program. It is mainly useful for testing.
func BuildSSAFromSource(source string) (*ssa.Program, *ssa.Package, error) {
	pkgs, err := LoadPackagesFromSource(source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load package: %w", err)
	}
	return BuildSSA(pkgs, ssa.SanityCheckFunctions|ssa.BuildSerially)
}
