package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"

	"golang.org/x/tools/go/callgraph/static"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/cs-au-dk/fixpoint/analysis/batch"
	"github.com/cs-au-dk/fixpoint/analysis/clients/paramflow"
	"github.com/cs-au-dk/fixpoint/analysis/ssaproc"
	"github.com/cs-au-dk/fixpoint/analysis/summary"
	"github.com/cs-au-dk/fixpoint/pkgutil"
	"github.com/cs-au-dk/fixpoint/utils"
	"github.com/cs-au-dk/fixpoint/utils/graph"
)

// pipeline is a wrapper around the analysis pipeline.
type pipeline struct {
	prog  *ssa.Program
	procs *ssaproc.Program
	local pkgutil.Local
	calls graph.Graph[*ssa.Function]
}

func newPipeline(pkgs []*packages.Package) (*pipeline, error) {
	log.Println("Building SSA...")
	prog, spkgs := ssautil.AllPackages(pkgs, 0)
	prog.Build()
	log.Println("SSA done")

	local := pkgutil.LocalPackages(spkgs)
	if len(local) == 0 {
		return nil, fmt.Errorf("no SSA package was built from %d loaded packages", len(pkgs))
	}
	if opts.IncludeTests() {
		log.Printf("Found %d test functions", len(pkgutil.TestFunctions(prog)))
	}

	calls := graph.FromCallGraph(static.CallGraph(prog), false)
	return &pipeline{prog, ssaproc.NewProgram(prog), local, calls}, nil
}

// functions lists the functions targeted by -fun, or every function of the
// local packages when no function is targeted.
func (p *pipeline) functions() []*ssa.Function {
	if !opts.AnalyzeAllFuncs() {
		fn, found := p.procs.Lookup(opts.Function())
		if !found {
			log.Fatalf("Function %q not found", opts.Function())
		}
		return []*ssa.Function{fn}
	}

	var res []*ssa.Function
	for _, fn := range p.procs.Functions() {
		if p.local.IsLocal(fn) {
			res = append(res, fn)
		}
	}
	return res
}

// batchConfig loads the batch settings from the -config file and lets
// command line flags override them.
func batchConfig() (batch.Config, error) {
	config := batch.DefaultConfig()
	if file := opts.ConfigFile(); file != "" {
		var err error
		if config, err = batch.LoadConfig(file); err != nil {
			return config, err
		}
	}

	if opts.Workers() > 0 {
		config.Workers = opts.Workers()
	}
	if opts.Timeout() > 0 {
		config.Timeout = opts.Timeout()
	}
	if opts.WidenThreshold() > 0 {
		config.WidenThreshold = opts.WidenThreshold()
	}
	if opts.MaxIterations() > 0 {
		config.MaxIterations = opts.MaxIterations()
	}
	if opts.Exceptional() {
		config.Exceptional = true
	}
	if opts.StopAtExnSink() {
		config.StopAtExnSink = true
	}
	return config, nil
}

// paramFlow summarizes every targeted function and its callees, and
// reports which parameters flow into results.
func (p *pipeline) paramFlow() error {
	config, err := batchConfig()
	if err != nil {
		return err
	}

	var store summary.Store[*ssa.Function, paramflow.Summary]
	var fileStore *summary.FileStore[*ssa.Function, paramflow.Summary]
	if file := opts.SummaryFile(); file != "" {
		if fileStore, err = summary.OpenFileStore[*ssa.Function, paramflow.Summary](file, paramflow.Key); err != nil {
			return err
		}
		log.Printf("Loaded %d stored summaries from %s", fileStore.Len(), file)
		store = fileStore
	}

	cache := summary.NewCache[*ssa.Function, paramflow.Summary](utils.PointerHasher[*ssa.Function]{}, store)
	analyzer := summary.NewAnalyzer[*ssa.Function, ssa.Instruction, paramflow.State, paramflow.Summary](
		p.procs, paramflow.Client(config.Solver()), cache)

	driver, err := batch.NewDriver(analyzer, config, paramflow.Key)
	if err != nil {
		return err
	}
	opts.OnVerbose(func() {
		analyzer.SetLogger(log.Default())
		driver.SetLogger(log.Default())
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fns := p.functions()
	log.Printf("Analyzing %d functions with %d workers...", len(fns), config.Workers)
	results, runErr := driver.Run(ctx, batch.Plan(fns, p.calls.Edges))
	log.Println("Analysis done")
	fmt.Println()

	printSummaries(cache, results)
	fmt.Println()
	if err := batch.Report(os.Stdout, results, paramflow.Key, opts.Verbose()); err != nil {
		return err
	}
	gatherMetrics(analyzer, results, p.calls)

	if fileStore != nil {
		if err := cache.Persist(); err != nil {
			return err
		}
		if err := fileStore.Flush(); err != nil {
			return err
		}
		log.Printf("Stored %d summaries in %s", fileStore.Len(), opts.SummaryFile())
	}
	return runErr
}

func printSummaries(cache *summary.Cache[*ssa.Function, paramflow.Summary], results []batch.Result[*ssa.Function]) {
	sorted := make([]batch.Result[*ssa.Function], 0, len(results))
	for _, r := range results {
		if r.Status == batch.Computed {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return paramflow.Key(sorted[i].Proc) < paramflow.Key(sorted[j].Proc)
	})

	for _, r := range sorted {
		if sum, found := cache.Get(r.Proc); found {
			fmt.Printf("%s: %s\n", paramflow.Key(r.Proc), sum)
		}
	}
}
