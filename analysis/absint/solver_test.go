package absint

import (
	"bytes"
	"context"
	"errors"
	"go/token"
	"log"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/cs-au-dk/fixpoint/analysis/cfg"
	L "github.com/cs-au-dk/fixpoint/analysis/lattice"
	"github.com/cs-au-dk/fixpoint/utils"
)

func init() {
	utils.Opts().SetNoColorize(true)
}

// Instructions of the toy language used by the tests.
type instr interface{ isInstr() }

type (
	// inc adds one to every tracked value.
	inc struct{}
	// tag records that control flowed through the instruction.
	tag string
)

func (inc) isInstr() {}
func (tag) isInstr() {}

// The bounded set lattice tracking {0, 1, 2, ≥3}.
var bounded = L.Powerset(utils.IntHasher(), 0, 1, 2, 3)

func execBounded(_ struct{}, s L.Set[int], _ cfg.Node, i instr) L.Set[int] {
	switch i.(type) {
	case inc:
		res := bounded.Bot()
		s.ForEach(func(x int) {
			res = bounded.Add(res, min(x+1, 3))
		})
		return res
	}
	return s
}

func twoNodes(t *testing.T) *cfg.Graph[instr] {
	t.Helper()
	b := cfg.NewBuilder[instr]("two")
	b.Append(b.Entry(), inc{}).Edge(b.Entry(), b.Exit())
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func boundedAnalysis() Analysis[instr, L.Set[int], struct{}] {
	return Analysis[instr, L.Set[int], struct{}]{
		Lattice: bounded,
		Exec:    execBounded,
		Config:  Config{WidenThreshold: 2},
	}
}

func TestBoundedSetScenario(t *testing.T) {
	g := twoNodes(t)
	a := boundedAnalysis()

	res, err := Run[instr](context.Background(), g, a, bounded.Make(0), struct{}{})
	if err != nil {
		t.Fatal(err)
	}

	exit, ok := res.ExitState()
	if !ok {
		t.Fatal("exit should be reachable")
	}
	if !bounded.Eq(exit, bounded.Make(1)) {
		t.Fatalf("expected { 1 } at exit, got %s", exit)
	}

	runs := 1
	for ; runs <= 4 && !bounded.Eq(exit, bounded.Make(3)); runs++ {
		res, err = Run[instr](context.Background(), g, a, exit, struct{}{})
		if err != nil {
			t.Fatal(err)
		}
		exit, _ = res.ExitState()
	}

	if !bounded.Eq(exit, bounded.Make(3)) {
		t.Errorf("expected { 3 } within 4 runs, got %s", exit)
	}
	t.Logf("Reached %s after %d runs", exit, runs)
}

func TestBoundedSetGolden(t *testing.T) {
	res, err := Run[instr](context.Background(), twoNodes(t), boundedAnalysis(), bounded.Make(0), struct{}{})
	if err != nil {
		t.Fatal(err)
	}

	goldie.New(t).Assert(t, t.Name(), []byte(res.String()))
}

// loop builds entry → head ⇄ body, head → exit.
func loop(t *testing.T, body ...instr) *cfg.Graph[instr] {
	t.Helper()
	b := cfg.NewBuilder[instr]("loop")
	head := b.AddBlock(cfg.Branch, token.NoPos)
	blk := b.AddBlock(cfg.Stmt, token.NoPos, body...)
	b.Edge(b.Entry(), head).Edge(head, blk, b.Exit()).Edge(blk, head)
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestLoopWidening(t *testing.T) {
	counter := L.Bounded(100)
	exec := func(_ struct{}, n int, _ cfg.Node, i instr) int {
		if _, ok := i.(inc); ok {
			return counter.Inc(n)
		}
		return n
	}

	g := loop(t, inc{})

	run := func(threshold int) *InvariantMap[int] {
		res, err := Run[instr](context.Background(), g, Analysis[instr, int, struct{}]{
			Lattice: counter,
			Exec:    exec,
			Config:  Config{WidenThreshold: threshold},
		}, 0, struct{}{})
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	widened, joined := run(2), run(1000)

	for _, res := range []*InvariantMap[int]{widened, joined} {
		if exit, _ := res.ExitState(); exit != 100 {
			t.Errorf("expected the counter to saturate at the exit, got %d", exit)
		}
	}

	if widened.Steps() >= joined.Steps() {
		t.Errorf("widening should converge faster: %d vs %d steps", widened.Steps(), joined.Steps())
	}

	head, _ := widened.Get(cfg.BlockNode(2))
	if head.Visits > 3 {
		t.Errorf("loop head updated %d times with widening after 2", head.Visits)
	}
}

func TestDeterminism(t *testing.T) {
	g := loop(t, inc{}, inc{})
	a := boundedAnalysis()

	r1, err := Run[instr](context.Background(), g, a, bounded.Make(0), struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Run[instr](context.Background(), g, a, bounded.Make(0), struct{}{})
	if err != nil {
		t.Fatal(err)
	}

	if !r1.Equal(r2) || r1.String() != r2.String() || r1.Steps() != r2.Steps() {
		t.Errorf("runs differ:\n%s\n%s", r1, r2)
	}
}

func tags() L.InfinitePowersetLattice[string] {
	return L.InfinitePowerset(utils.StringHasher(), "tags")
}

func execTags(_ struct{}, s L.Set[string], _ cfg.Node, i instr) L.Set[string] {
	if t, ok := i.(tag); ok {
		return s.Add(string(t))
	}
	return s
}

// raising builds entry → b2 → exit with b2 ⇢ sink → exit.
func raising(t *testing.T) (*cfg.Graph[instr], int) {
	t.Helper()
	b := cfg.NewBuilder[instr]("raising")
	b2 := b.AddBlock(cfg.Stmt, token.NoPos, tag("call"))
	sink := b.AddBlock(cfg.ExnSink, token.NoPos, tag("exn"))
	b.Edge(b.Entry(), b2).Edge(b2, b.Exit()).Edge(sink, b.Exit()).ExnEdge(b2, sink)
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return g, sink
}

func TestExceptionalEdges(t *testing.T) {
	g, sink := raising(t)

	tests := []struct {
		name                   string
		config                 Config
		sinkReached, exnAtExit bool
	}{
		{"normal", Config{}, false, false},
		{"exceptional", Config{Exceptional: true}, true, true},
		{"stop-at-sink", Config{Exceptional: true, StopAtExnSink: true}, true, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, err := Run[instr](context.Background(), g, Analysis[instr, L.Set[string], struct{}]{
				Lattice: tags(),
				Exec:    execTags,
				Config:  test.config,
			}, tags().Bot(), struct{}{})
			if err != nil {
				t.Fatal(err)
			}

			if _, found := res.Get(cfg.BlockNode(sink)); found != test.sinkReached {
				t.Errorf("sink reached: %v, expected %v", found, test.sinkReached)
			}

			exit, _ := res.ExitState()
			if !exit.Contains("call") {
				t.Errorf("normal flow should reach the exit, got %s", exit)
			}
			if exit.Contains("exn") != test.exnAtExit {
				t.Errorf("exit state %s, expected exn: %v", exit, test.exnAtExit)
			}
		})
	}
}

// naturals is an infinite chain whose widening does not accelerate.
type naturals struct{ L.BoundedLattice }

func (naturals) Widen(prev, next int, _ int) int { return max(prev, next) }
func (naturals) Join(a, b int) int               { return max(a, b) }

func TestIterationBound(t *testing.T) {
	g := loop(t, inc{})
	_, err := Run[instr](context.Background(), g, Analysis[instr, int, struct{}]{
		Lattice: naturals{L.Bounded(1 << 30)},
		Exec: func(_ struct{}, n int, _ cfg.Node, _ instr) int {
			return n + 1
		},
		Config: Config{MaxIterations: 50},
	}, 0, struct{}{})

	if !errors.Is(err, ErrIterationBound) {
		t.Errorf("expected ErrIterationBound, got %v", err)
	}
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run[instr](ctx, twoNodes(t), boundedAnalysis(), bounded.Make(0), struct{}{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRetention(t *testing.T) {
	g := loop(t, tag("a"), tag("b"))
	v := cfg.OneInstrPerNode[instr](g, func(_ cfg.Node, i instr) bool {
		return i == tag("b")
	})

	res, err := Run[instr](context.Background(), v, Analysis[instr, L.Set[string], struct{}]{
		Lattice: tags(),
		Exec:    execTags,
	}, tags().Bot(), struct{}{})
	if err != nil {
		t.Fatal(err)
	}

	if _, found := res.Get(cfg.Node{Block: 3, Instr: 0}); found {
		t.Error("invariant of tag a should be discarded")
	}
	post, found := res.Post(cfg.Node{Block: 3, Instr: 1})
	if !found || !post.Contains("a") || !post.Contains("b") {
		t.Errorf("invariant of tag b should be retained, got %s", post)
	}
	for _, n := range []cfg.Node{v.Start(), v.Exit(), cfg.BlockNode(2)} {
		if _, found := res.Get(n); !found {
			t.Errorf("invariant of %s should be retained", n)
		}
	}
}

func TestBackwardRun(t *testing.T) {
	// Counts the instructions on the longest path to the exit.
	counter := L.Bounded(10)
	b := cfg.NewBuilder[instr]("straight")
	b1 := b.AddBlock(cfg.Stmt, token.NoPos, inc{}, inc{})
	b2 := b.AddBlock(cfg.Stmt, token.NoPos, inc{})
	b.Edge(b.Entry(), b1).Edge(b1, b2).Edge(b2, b.Exit())
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	var order []cfg.Node
	res, err := Run[instr](context.Background(), cfg.Backward[instr](g), Analysis[instr, int, struct{}]{
		Lattice: counter,
		Exec: func(_ struct{}, n int, node cfg.Node, _ instr) int {
			order = append(order, node)
			return counter.Inc(n)
		},
	}, 0, struct{}{})
	if err != nil {
		t.Fatal(err)
	}

	if entry, ok := res.ExitState(); !ok || entry != 3 {
		t.Errorf("expected 3 instructions before the exit, got %d", entry)
	}
	if post, _ := res.Post(cfg.BlockNode(b2)); post != 1 {
		t.Errorf("expected 1 instruction after b2, got %d", post)
	}
	if len(order) != 3 || order[0] != cfg.BlockNode(b2) {
		t.Errorf("backward run should visit b2 first, got %v", order)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	a := boundedAnalysis()
	a.Config.Logger = log.New(&buf, "", 0)

	if _, err := Run[instr](context.Background(), twoNodes(t), a, bounded.Make(0), struct{}{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Visiting b0: { 1 }") {
		t.Errorf("unexpected log output:\n%s", buf.String())
	}
}
