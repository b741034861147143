package utils

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"
)

type options struct {
	minlen       uint
	nodesep      float64
	workers      int
	widen        int
	maxIters     int
	timeout      time.Duration
	function     string
	outputFormat string
	gopath       string
	modulePath   string
	configFile   string
	summaries    string
	task         string
	noColorize   bool
	httpDebug    bool
	verbose      bool
	includeTests bool
	exceptional  bool
	stopAtSink   bool
}

const (
	_CAN_BUILD = iota
	_CFG_TO_DOT
	_LIVENESS
	_PARAM_FLOW
)

// CanColorize wraps a colorizing function so that it is bypassed when
// colorization is disabled.
func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%v", len(is)), is...)
		}
	}
	return col
}

var task = []struct{ flag, explanation string }{{
	"check-can-build",
	"Performs a mock building of the package, attempting SSA construction",
}, {
	"cfg-to-dot",
	"Render the control-flow graph of the function selected with -fun",
}, {
	"liveness",
	"Compute live SSA values at every block with the backward liveness client",
}, {
	"paramflow",
	"Compute which parameters flow to the results of every function, interprocedurally",
}}

var opts = &options{}

type optInterface struct{}

type taskInterface struct{}

// Opts exposes the command line options.
func Opts() optInterface {
	return optInterface{}
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}

// SetNoColorize toggles colorization. Mainly useful for tests.
func (optInterface) SetNoColorize(b bool) {
	opts.noColorize = b
}

func (optInterface) Minlen() uint {
	return opts.minlen
}
func (optInterface) Nodesep() float64 {
	return opts.nodesep
}
func (optInterface) Function() string {
	return opts.function
}
func (optInterface) OutputFormat() string {
	return opts.outputFormat
}
func (optInterface) GoPath() string {
	return opts.gopath
}
func (optInterface) ModulePath() string {
	return opts.modulePath
}
func (optInterface) ConfigFile() string {
	return opts.configFile
}
func (optInterface) SummaryFile() string {
	return opts.summaries
}
func (optInterface) Workers() int {
	return opts.workers
}
func (optInterface) WidenThreshold() int {
	return opts.widen
}
func (optInterface) MaxIterations() int {
	return opts.maxIters
}
func (optInterface) Timeout() time.Duration {
	return opts.timeout
}
func (optInterface) Exceptional() bool {
	return opts.exceptional
}
func (optInterface) StopAtExnSink() bool {
	return opts.stopAtSink
}
func (optInterface) HttpDebug() bool {
	return opts.httpDebug
}
func (optInterface) Verbose() bool {
	return opts.verbose
}
func (optInterface) IncludeTests() bool {
	return opts.includeTests
}
func (optInterface) Task() taskInterface {
	return taskInterface{}
}
func (taskInterface) IsCanBuild() bool {
	return opts.task == task[_CAN_BUILD].flag
}
func (taskInterface) IsCfgToDot() bool {
	return opts.task == task[_CFG_TO_DOT].flag
}
func (taskInterface) IsLiveness() bool {
	return opts.task == task[_LIVENESS].flag
}
func (taskInterface) IsParamFlow() bool {
	return opts.task == task[_PARAM_FLOW].flag
}

func init() {
	taskFlag := "\n"
	for _, task := range task {
		taskFlag += task.flag + " -- " + task.explanation + "\n"
	}
	taskFlag += "\n"

	flag.UintVar(&(opts.minlen), "minlen", 2, "Minimum edge length (for wider output).")
	flag.Float64Var(&(opts.nodesep), "nodesep", 0.35, "Minimum space between two adjacent nodes in the same rank (for taller output).")
	flag.StringVar(&(opts.function), "fun", ".", "target a specific function w. r. t. the given task.\n"+
		"- Function names need not be fully qualified w.r.t. package name.\n"+
		"- Use '.' to target all functions in the loaded packages.\n")
	flag.StringVar(&(opts.outputFormat), "format", "svg", "output file format [svg | png | jpg | ...]")
	flag.StringVar(&(opts.gopath), "gopath", "examples", "specify GOPATH to be used for packages.Load")
	flag.StringVar(&(opts.modulePath), "modulepath", "", `specify a path to a directory containing a Go module.
- If provided this will make our code loading tools (that piggyback on Go's tools) run
in "module-aware" mode (GO111MODULE=on).`)
	flag.StringVar(&(opts.configFile), "config", "", "YAML file with batch analysis settings. Command line flags override it.")
	flag.StringVar(&(opts.summaries), "summaries", "", "msgpack file used to persist summaries between runs")
	flag.StringVar(&(opts.task), "task", task[_PARAM_FLOW].flag, "Set the task to do during execution. Options:"+taskFlag)
	flag.IntVar(&(opts.workers), "workers", 0, "number of procedures analyzed in parallel (0 = GOMAXPROCS)")
	flag.IntVar(&(opts.widen), "widen", 0, "number of joins at a node before switching to widening (0 = default)")
	flag.IntVar(&(opts.maxIters), "max-iters", 0, "per-procedure bound on solver steps (0 = unbounded)")
	flag.DurationVar(&(opts.timeout), "timeout", 0, "per-procedure analysis timeout (0 = none)")
	flag.BoolVar(&(opts.exceptional), "exceptional", false, "propagate abstract states along exceptional (panic) edges")
	flag.BoolVar(&(opts.stopAtSink), "stop-at-exn-sink", false, "do not propagate abstract states past the exceptional sink of a function")
	flag.BoolVar(&(opts.noColorize), "no-colorize", false, "Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")
	flag.BoolVar(&(opts.includeTests), "include-tests", false, "include main package test files in the analysis.")
	flag.BoolVar(&(opts.httpDebug), "http-debug", false, "Start an http/pprof server for debugging")

	// Set up logging
	log.SetFlags(log.Ltime | log.Lshortfile)
}

// ParseArgs parses and validates the command line.
func ParseArgs() {
	// Calling flag.Parse in init messes up unit tests.
	// See https://stackoverflow.com/questions/60235896/flag-provided-but-not-defined-test-v
	flag.Parse()

	validTask := false
	for _, task := range task {
		if task.flag == opts.task {
			validTask = true
			break
		}
	}

	if !validTask {
		log.Fatalf("Value \"%s\" is not valid for -task", opts.task)
	}

	if Opts().Task().IsCfgToDot() {
		opts.noColorize = true
	}
}

func (optInterface) AnalyzeAllFuncs() bool {
	return opts.function == "."
}

func (optInterface) OnVerbose(do func()) {
	if Opts().Verbose() {
		do()
	}
}
