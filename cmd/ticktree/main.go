package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danpilch/ticktree/pkg/config"
	"github.com/danpilch/ticktree/pkg/profiler"
)

var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:           "ticktree",
		Short:         "Call-tree profiler for repeating update loops",
		Long:          "ticktree times nested regions of a tick-based loop, infers the call tree from the loop boundary and reports rolling averages per region.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML settings file, reloaded on change")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "log level (must be one of `debug`, `info`, `warn`, `error`)")

	rootCmd.AddCommand(demoCmd, benchCmd, mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

// setupLogger logs to stderr so stdout stays free for reports and MCP.
func setupLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(lvl)
	return logger, nil
}

// initialSettings returns the defaults overlaid with the settings file, if any.
func initialSettings() (profiler.Settings, error) {
	settings := profiler.DefaultSettings()
	if configPath == "" {
		return settings, nil
	}
	conf, err := config.Load(configPath)
	if err != nil {
		return settings, err
	}
	if err := conf.Apply(&settings); err != nil {
		return settings, fmt.Errorf("cannot apply %s: %w", configPath, err)
	}
	return settings, nil
}
