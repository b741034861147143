package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/fatih/color"

	"github.com/cs-au-dk/fixpoint/analysis/absint"
	"github.com/cs-au-dk/fixpoint/analysis/cfg"
	"github.com/cs-au-dk/fixpoint/analysis/clients/liveness"
	"github.com/cs-au-dk/fixpoint/analysis/ssaproc"
	"github.com/cs-au-dk/fixpoint/utils"

	"golang.org/x/tools/go/ssa"
)

// cfgToDot visualizes the control flow graph of every targeted function.
func (p *pipeline) cfgToDot() {
	log.Println("Preparing to visualize CFGs:")
	for _, fn := range p.functions() {
		g, err := ssaproc.Build(fn)
		if err != nil {
			log.Printf("Skipping %s: %v", fn, err)
			continue
		}

		fname := strings.NewReplacer("/", "_", "*", "", "(", "", ")", "", "$", "_").Replace(fn.String())
		out, err := cfg.ToDot[ssa.Instruction](g, fn.String(), showInstr).Render(fname, opts.OutputFormat())
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Println("Wrote", out)
	}
}

func showInstr(instr ssa.Instruction) string {
	if v, ok := instr.(ssa.Value); ok {
		return v.Name() + " = " + instr.String()
	}
	return instr.String()
}

// liveness prints the live values at the block boundaries of every targeted
// function.
func (p *pipeline) liveness() {
	config := absint.Config{
		WidenThreshold: opts.WidenThreshold(),
		MaxIterations:  opts.MaxIterations(),
		StopAtExnSink:  opts.StopAtExnSink(),
	}

	for _, fn := range p.functions() {
		ctx := context.Background()
		var cancel context.CancelFunc = func() {}
		if opts.Timeout() > 0 {
			ctx, cancel = context.WithTimeout(ctx, opts.Timeout())
		}

		res, err := liveness.Analyze(ctx, fn, config)
		cancel()
		if err != nil {
			fmt.Println(utils.CanColorize(color.New(color.FgRed).SprintFunc())(fmt.Sprintf("%s: %v", fn, err)))
			continue
		}

		fmt.Println(res)
		opts.OnVerbose(func() {
			fmt.Printf("Solver steps: %d\n\n", res.Steps())
		})
	}
}
