package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danpilch/ticktree/pkg/config"
	"github.com/danpilch/ticktree/pkg/debug"
	"github.com/danpilch/ticktree/pkg/demo"
	"github.com/danpilch/ticktree/pkg/flamegraph"
	"github.com/danpilch/ticktree/pkg/output"
	"github.com/danpilch/ticktree/pkg/profiler"
)

var (
	demoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Profile a simulated game loop and report it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.Context())
		},
	}

	demoDuration    time.Duration
	demoReportEvery time.Duration
	demoFormat      string
	demoBudget      time.Duration
	demoScore       bool
	demoSVG         string
	demoFolded      string
	demoFocus       []string
	demoPprof       string
	demoTrace       bool
	demoDump        bool
)

func init() {
	f := demoCmd.Flags()
	f.DurationVarP(&demoDuration, "duration", "d", 5*time.Second, "how long to run the loop (0 runs until interrupted)")
	f.DurationVar(&demoReportEvery, "report-every", 0, "render a report periodically while running")
	f.StringVarP(&demoFormat, "format", "o", "table", "report format: table, tree, json, tsv, ai")
	f.DurationVar(&demoBudget, "budget", time.Second/60, "per-tick time budget used for scoring")
	f.BoolVar(&demoScore, "score", true, "show the budget score")
	f.StringVar(&demoSVG, "svg", "", "write a flame graph SVG of the final tree to this path")
	f.StringVar(&demoFolded, "folded", "", "write folded stacks of the final tree to this path")
	f.StringSliceVar(&demoFocus, "focus", nil, "regions to highlight")
	f.StringVar(&demoPprof, "pprof", "", "serve pprof on this address while running")
	f.BoolVar(&demoTrace, "trace", false, "trace profiler steps to stderr")
	f.BoolVar(&demoDump, "dump", false, "dump raw history after the run")
}

func runDemo(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := setupLogger(logLevel)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(demoFormat)
	if err != nil {
		return err
	}
	settings, err := initialSettings()
	if err != nil {
		return err
	}

	opts := profiler.Options{Logger: logger}
	if demoTrace {
		opts.Tracer = debug.NewTraceLogger(os.Stderr)
	}
	sh := profiler.NewShared(settings, opts)
	for _, name := range demoFocus {
		sh.ToggleFocus(name)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if configPath != "" {
		w := config.NewWatcher(configPath, sh, logger)
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Close()
	}

	if demoPprof != "" {
		srv, err := debug.StartPprofServer(demoPprof, sh, logger)
		if err != nil {
			return err
		}
		defer srv.Stop()
	}

	formatter := output.NewFormatter(format, os.Stdout)
	formatter.SetBudget(demoBudget)
	formatter.SetShowScore(demoScore)

	logger.WithFields(logrus.Fields{
		"duration": demoDuration,
		"format":   format,
	}).Info("Running demo loop")

	err = demo.Run(ctx, sh, demo.Options{
		Duration:      demoDuration,
		ReportEvery:   demoReportEvery,
		Report:        formatter.Render,
		CallbackEvery: 7 * time.Millisecond,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	snap := sh.Snapshot()
	if err := formatter.Render(snap); err != nil {
		return err
	}
	if demoDump {
		debug.DumpHistory(os.Stdout, snap)
	}
	if demoSVG != "" {
		if err := writeSVG(demoSVG, snap); err != nil {
			return err
		}
	}
	if demoFolded != "" {
		if err := writeFolded(demoFolded, snap); err != nil {
			return err
		}
	}
	return nil
}

func writeSVG(path string, snap profiler.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer f.Close()

	opts := flamegraph.DefaultSVGOptions()
	opts.Focused = snap.Selection.Focused
	if err := flamegraph.WriteSVG(f, flamegraph.NewLayout(snap.Tree, snap.Duration), opts); err != nil {
		return fmt.Errorf("cannot write flame graph: %w", err)
	}
	return f.Close()
}

func writeFolded(path string, snap profiler.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer f.Close()

	if err := flamegraph.WriteCollapsed(f, snap.Tree, snap.Duration); err != nil {
		return fmt.Errorf("cannot write folded stacks: %w", err)
	}
	return f.Close()
}
