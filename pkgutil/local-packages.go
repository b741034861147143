package pkgutil

import (
	"fmt"

	"golang.org/x/tools/go/ssa"
)

// Local is the set of packages requested on the command line, as opposed to
// their dependencies.
type Local map[*ssa.Package]bool

// LocalPackages collects the SSA packages built for the loaded packages.
// Packages that failed to build are nil and skipped.
func LocalPackages(spkgs []*ssa.Package) Local {
	local := make(Local)
	for _, p := range spkgs {
		if p != nil {
			local[p] = true
		}
	}

	opts.OnVerbose(func() {
		fmt.Println("Local packages:")
		for p := range local {
			fmt.Println(p.Pkg.Path())
		}
	})

	return local
}

// IsLocal checks whether fun belongs to a local package. Anonymous functions
// belong to the package of their enclosing function. Synthetic wrappers
// without a package are never local.
func (l Local) IsLocal(fun *ssa.Function) bool {
	for fun != nil && fun.Pkg == nil && fun.Parent() != nil {
		fun = fun.Parent()
	}
	return fun != nil && fun.Pkg != nil && l[fun.Pkg]
}
