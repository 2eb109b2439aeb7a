package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danpilch/ticktree/pkg/config"
	"github.com/danpilch/ticktree/pkg/demo"
	"github.com/danpilch/ticktree/pkg/mcpserver"
	"github.com/danpilch/ticktree/pkg/profiler"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve a profiled demo loop to MCP clients over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMCP(cmd.Context())
	},
}

func runMCP(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := setupLogger(logLevel)
	if err != nil {
		return err
	}
	settings, err := initialSettings()
	if err != nil {
		return err
	}
	sh := profiler.NewShared(settings, profiler.Options{Logger: logger})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if configPath != "" {
		w := config.NewWatcher(configPath, sh, logger)
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Close()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return demo.Run(ctx, sh, demo.Options{Logger: logger})
	})

	logger.Info("Serving MCP on stdio")
	// ServeStdio returns when the client disconnects or on SIGTERM/SIGINT.
	err = mcpserver.ServeStdio(sh, version)
	stop()
	if werr := g.Wait(); werr != nil && err == nil {
		err = werr
	}
	return err
}
