package main

import (
	"log"
	"os"

	"github.com/cs-au-dk/fixpoint/pkgutil"
	"github.com/cs-au-dk/fixpoint/utils"

	"net/http"
	_ "net/http/pprof"
)

var (
	opts = utils.Opts()
	task = opts.Task()
)

func main() {
	utils.ParseArgs()
	path := utils.MakePath()

	if opts.HttpDebug() {
		go func() {
			log.Println(http.ListenAndServe("localhost:6060", nil))
		}()
	}

	pkgs, err := pkgutil.LoadPackages(pkgutil.LoadConfig{
		GoPath:       opts.GoPath(),
		ModulePath:   opts.ModulePath(),
		IncludeTests: opts.IncludeTests(),
	}, path)
	if err != nil {
		log.Println("Failed pkgutil.LoadPackages")
		log.Println(err)
		os.Exit(1)
	}

	if task.IsCanBuild() {
		return
	}

	pl, err := newPipeline(pkgs)
	if err != nil {
		log.Fatalln(err)
	}

	switch {
	case task.IsCfgToDot():
		pl.cfgToDot()
	case task.IsLiveness():
		pl.liveness()
	case task.IsParamFlow():
		if err := pl.paramFlow(); err != nil {
			log.Fatalln(err)
		}
	}
}
