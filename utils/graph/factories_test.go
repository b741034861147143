package graph

import (
	"testing"

	"golang.org/x/tools/go/callgraph/static"

	"github.com/cs-au-dk/fixpoint/pkgutil"
)

func TestFromCallGraph(t *testing.T) {
	prog, pkg, err := pkgutil.BuildSSAFromSource(`package main

func leaf() {}

func twice() {
	leaf()
	leaf()
}

func main() {
	twice()
	defer leaf()
}
`)
	if err != nil {
		t.Fatal(err)
	}

	cg := FromCallGraph(static.CallGraph(prog), false)

	if callees := cg.Edges(pkg.Func("twice")); len(callees) != 1 || callees[0] != pkg.Func("leaf") {
		t.Errorf("duplicate edges should be pruned, got %v", callees)
	}
	if callees := cg.Edges(pkg.Func("main")); len(callees) != 2 {
		t.Errorf("main should call twice and leaf, got %v", callees)
	}
	if callees := cg.Edges(pkg.Func("leaf")); len(callees) != 0 {
		t.Errorf("leaf should not call anything, got %v", callees)
	}
}
