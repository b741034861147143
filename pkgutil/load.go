package pkgutil

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"
)

// LoadConfig selects how packages are found. A non-empty ModulePath loads in
// module-aware mode from the module rooted there, otherwise packages are
// looked up in GoPath. IncludeTests also loads the test files of the
// requested packages.
type LoadConfig struct {
	GoPath, ModulePath string
	IncludeTests       bool
}

// ErrLoad is returned when the loaded packages contain errors. The errors
// themselves are printed to stderr.
var ErrLoad = errors.New("errors encountered while loading packages")

// loadMode sets every packages.Need* bit needed to build SSA.
const loadMode packages.LoadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedTypes | packages.NeedTypesSizes | packages.NeedSyntax |
	packages.NeedTypesInfo | packages.NeedDeps

// cwd is the working directory at startup.
var cwd = func() string {
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return dir
}()

// relativizingParseFile parses files under names relative to cwd, so that
// positions printed in golden files do not depend on the checkout location.
func relativizingParseFile(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
	if rel, err := filepath.Rel(cwd, filename); err == nil {
		filename = rel
	}
	const mode = parser.AllErrors | parser.ParseComments
	return parser.ParseFile(fset, filename, src, mode)
}

// modulePath reads the module path declared in the go.mod file of dir.
func modulePath(dir string) (string, error) {
	gomod := filepath.Join(dir, "go.mod")
	contents, err := os.ReadFile(gomod)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", gomod, err)
	}
	path := modfile.ModulePath(contents)
	if path == "" {
		return "", fmt.Errorf("no module directive in %s", gomod)
	}
	return path, nil
}

// LoadPackages loads the packages matching pattern according to cfg.
func LoadPackages(cfg LoadConfig, pattern string) ([]*packages.Package, error) {
	gopath, err := filepath.Abs(cfg.GoPath)
	if err != nil {
		return nil, err
	}

	config := &packages.Config{
		Mode:      loadMode,
		Tests:     cfg.IncludeTests,
		ParseFile: relativizingParseFile,
	}

	if cfg.ModulePath == "" {
		config.Env = append(os.Environ(), "GOPATH="+gopath, "GO111MODULE=off")
		return loadPackagesWithConfig(config, pattern)
	}

	dir, err := filepath.Abs(cfg.ModulePath)
	if err != nil {
		return nil, err
	}
	module, err := modulePath(dir)
	if err != nil {
		return nil, err
	}
	opts.OnVerbose(func() {
		fmt.Printf("Loading %s from module %s\n", pattern, module)
	})

	config.Dir = dir
	config.Env = append(os.Environ(), "GOPATH="+gopath, "GO111MODULE=on")
	return loadPackagesWithConfig(config, pattern)
}

// LoadPackagesFromSource loads a single main package from source. It is
// mainly useful for testing.
func LoadPackagesFromSource(source string) ([]*packages.Package, error) {
	// The overlay makes the non-existent file visible to the loader.
	config := &packages.Config{
		Mode: loadMode,
		Env:  append(os.Environ(), "GO111MODULE=off", "GOPATH=/fake"),
		Overlay: map[string][]byte{
			"/fake/testpackage/main.go": []byte(source),
		},
	}

	return loadPackagesWithConfig(config, "/fake/testpackage/main.go")
}

// loadPackagesWithConfig loads query and, when tests are included, drops
// the test-less duplicates of packages that have tests.
func loadPackagesWithConfig(config *packages.Config, query string) ([]*packages.Package, error) {
	pkgs, err := packages.Load(config, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", query, err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, ErrLoad
	}
	if !config.Tests {
		return pkgs, nil
	}

	// Packages with tests are returned twice, once without and once with
	// their test files. Keeping both duplicates every type, function and
	// SSA value of the package.
	ids := make(map[string]bool, len(pkgs))
	for _, pkg := range pkgs {
		ids[pkg.ID] = true
	}

	filtered := make([]*packages.Package, 0, len(pkgs))
	for _, pkg := range pkgs {
		if !ids[fmt.Sprintf("%s [%s.test]", pkg.ID, pkg.ID)] {
			filtered = append(filtered, pkg)
		}
	}
	return filtered, nil
}
