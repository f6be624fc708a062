package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"depsafe/internal/usage"
)

var scanFormat string

var scanCmd = &cobra.Command{
	Use:   "scan <package>",
	Short: "Scan the codebase for usage of a dependency",
	Long: `Scan the codebase under --root for references to a dependency:
imports and requires, every use of the bindings they introduce, and literal
occurrences in configuration and lock files. Each location is classified by
syntactic role and by context (production, test, config, build).

Examples:
  depsafe scan express
  depsafe scan @types/node --root ../my-app --format=json`,
	Args: cobra.ExactArgs(1),
	Run:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format (json, human)")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg, scanFormat)

	scanner := usage.NewScanner(usage.Options{
		IgnoreDirs:       cfg.Scanner.IgnoreDirs,
		MaxFiles:         cfg.Scanner.MaxFiles,
		MaxFileSizeBytes: cfg.Scanner.MaxFileSizeBytes,
		Concurrency:      cfg.Scanner.Concurrency,
	}, logger)

	analysis, err := scanner.Scan(newContext(), rootFlag, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning codebase: %v\n", err)
		os.Exit(1)
	}

	if scanFormat == "json" {
		printJSON(analysis)
		return
	}
	printUsage(analysis)
}
