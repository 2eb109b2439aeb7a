package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/danpilch/ticktree/pkg/benchmark"
)

var (
	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Measure the profiler's own instrumentation overhead",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBench()
		},
	}

	benchIterations int
	benchWarmup     int
)

func init() {
	defaults := benchmark.DefaultOptions()
	benchCmd.Flags().IntVarP(&benchIterations, "iterations", "n", defaults.Iterations, "measured iterations per scenario")
	benchCmd.Flags().IntVar(&benchWarmup, "warmup", defaults.Warmup, "unmeasured iterations per scenario")
}

func runBench() error {
	logger, err := setupLogger(logLevel)
	if err != nil {
		return err
	}
	settings, err := initialSettings()
	if err != nil {
		return err
	}

	opts := benchmark.DefaultOptions()
	opts.Iterations = benchIterations
	opts.Warmup = benchWarmup
	opts.Settings = settings
	opts.Logger = logger

	var results []benchmark.Result
	overhead := benchmark.MeasureOverhead(func() {
		results = benchmark.Run(benchmark.Scenarios(), opts)
	})
	benchmark.RenderResults(os.Stdout, results, overhead)
	return nil
}
