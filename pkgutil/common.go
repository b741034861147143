package pkgutil

import (
	"sort"
	"strings"

	"github.com/cs-au-dk/fixpoint/utils"

	"golang.org/x/tools/go/ssa"
)

// opts is a shorthand for the CLI option API.
var opts = utils.Opts()

// AllPackages lists the packages of prog sorted by path, skipping synthetic
// test main packages. When a path occurs twice, the variant with more
// members (the one including test files) is kept.
func AllPackages(prog *ssa.Program) []*ssa.Package {
	byPath := make(map[string]*ssa.Package)
	for _, pkg := range prog.AllPackages() {
		path := pkg.Pkg.Path()
		if strings.HasSuffix(path, ".test") {
			continue
		}
		if other, ok := byPath[path]; !ok || len(pkg.Members) > len(other.Members) {
			byPath[path] = pkg
		}
	}

	res := make([]*ssa.Package, 0, len(byPath))
	for _, pkg := range byPath {
		res = append(res, pkg)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Pkg.Path() < res[j].Pkg.Path()
	})
	return res
}
