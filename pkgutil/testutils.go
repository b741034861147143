package pkgutil

import (
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/ssa"
)

// TestFunctions lists the functions of the form TestXxx(*testing.T) in the
// packages of prog, sorted by name.
func TestFunctions(prog *ssa.Program) (res []*ssa.Function) {
	testing := prog.ImportedPackage("testing")
	if testing == nil {
		// No tests are defined unless the testing package is loaded.
		return
	}
	tPtr := types.NewPointer(testing.Type("T").Type())

	for _, pkg := range AllPackages(prog) {
		for name, member := range pkg.Members {
			fun, ok := member.(*ssa.Function)
			if ok && strings.HasPrefix(name, "Test") &&
				len(fun.Params) == 1 && types.Identical(tPtr, fun.Params[0].Type()) {
				res = append(res, fun)
			}
		}
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].String() < res[j].String()
	})
	return
}
