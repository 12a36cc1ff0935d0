package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/plus3/frameloop/loop/config"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	logFormat  string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "frameloop",
		Short:         "fixed-step frame scheduler tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (text, json)")

	rootCmd.AddCommand(
		newStressCommand(),
		newLiveCommand(),
		newWindowCommand(),
		newValidateCommand(),
	)
	return rootCmd
}

// loadConfig reads --config, or the defaults when it is empty, and applies
// the log flag overrides.
func loadConfig() (*config.File, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loggerFor(cfg *config.File) *slog.Logger {
	return newLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
}
