package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"depsafe/internal/config"
	"depsafe/internal/logging"
	"depsafe/internal/version"
)

var (
	// rootFlag is the CLI --root flag value: the codebase being gated.
	rootFlag string
)

var rootCmd = &cobra.Command{
	Use:   "depsafe",
	Short: "depsafe - dependency upgrade risk assessment",
	Long: `depsafe assesses the risk of upgrading a dependency from one version to
another by fusing evidence from multiple unreliable sources (package diffs,
release notes, commit history) into a single calibrated risk verdict with
mitigation guidance. Built for automated pull-request gating.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("depsafe version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".",
		"Root of the codebase being analyzed")
}

// mustLoadConfig loads .depsafe/config.json under the root flag, exiting on
// a malformed file. A missing file yields defaults.
func mustLoadConfig() *config.Config {
	cfg, err := config.LoadConfig(rootFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds the logger for a command. JSON output format forces JSON
// logs so stderr stays machine-readable alongside stdout.
func newLogger(cfg *config.Config, outputFormat string) *logging.Logger {
	format := logging.Format(cfg.Logging.Format)
	if outputFormat == "json" {
		format = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  logging.LogLevel(cfg.Logging.Level),
	})
}

func newContext() context.Context {
	return context.Background()
}
