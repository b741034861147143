package batch

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cs-au-dk/fixpoint/analysis/absint"
)

// Config tunes a batch analysis. It can be loaded from a YAML file:
//
//	workers: 4
//	timeout: 10s
//	widen-threshold: 2
//	max-iterations: 100000
//	exceptional: true
//	include: ["^main\\."]
//	exclude: ["_test$"]
type Config struct {
	// Workers bounds the number of procedures analyzed in parallel.
	Workers int `yaml:"workers"`
	// Timeout bounds the analysis of every top-level procedure, including
	// the callees analyzed on demand. 0 means unbounded.
	Timeout        time.Duration `yaml:"timeout"`
	WidenThreshold int           `yaml:"widen-threshold"`
	MaxIterations  int           `yaml:"max-iterations"`
	Exceptional    bool          `yaml:"exceptional"`
	StopAtExnSink  bool          `yaml:"stop-at-exn-sink"`
	// Include and Exclude filter procedures by name with regular
	// expressions. An empty Include selects every procedure.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	include, exclude []*regexp.Regexp
}

// DefaultConfig analyzes with one worker per CPU and no timeout.
func DefaultConfig() Config {
	return Config{
		Workers:        runtime.GOMAXPROCS(0),
		WidenThreshold: absint.DefaultWidenThreshold,
	}
}

// LoadConfig reads a configuration from a YAML file. Unset fields keep
// their defaults.
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}
	if err := cfg.compile(); err != nil {
		return cfg, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

func (c *Config) compile() error {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", c.Timeout)
	}

	compile := func(exprs []string) ([]*regexp.Regexp, error) {
		res := make([]*regexp.Regexp, 0, len(exprs))
		for _, e := range exprs {
			r, err := regexp.Compile(e)
			if err != nil {
				return nil, fmt.Errorf("invalid procedure filter: %w", err)
			}
			res = append(res, r)
		}
		return res, nil
	}

	var err error
	if c.include, err = compile(c.Include); err != nil {
		return err
	}
	c.exclude, err = compile(c.Exclude)
	return err
}

// Selects checks whether a procedure with the given name passes the filters.
func (c Config) Selects(name string) bool {
	for _, r := range c.exclude {
		if r.MatchString(name) {
			return false
		}
	}
	if len(c.include) == 0 {
		return true
	}
	for _, r := range c.include {
		if r.MatchString(name) {
			return true
		}
	}
	return false
}

// Solver extracts the configuration of individual solver runs.
func (c Config) Solver() absint.Config {
	return absint.Config{
		WidenThreshold: c.WidenThreshold,
		MaxIterations:  c.MaxIterations,
		Exceptional:    c.Exceptional,
		StopAtExnSink:  c.StopAtExnSink,
	}
}
