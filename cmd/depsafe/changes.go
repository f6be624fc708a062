package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"depsafe/internal/changelog"
)

var (
	changesFormat    string
	changesMaxTokens int
)

var changesCmd = &cobra.Command{
	Use:   "changes [file]",
	Short: "Extract breaking changes from changelog text",
	Long: `Extract breaking-change statements from unstructured changelog or
release-notes text, classified by severity (breaking, removal, warning).
Reads the given file, or stdin when no file is given.

Examples:
  depsafe changes CHANGELOG.md
  cat notes.md | depsafe changes
  depsafe changes CHANGELOG.md --max-tokens 500 --format=json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runChanges,
}

func init() {
	changesCmd.Flags().StringVar(&changesFormat, "format", "human", "Output format (json, human)")
	changesCmd.Flags().IntVar(&changesMaxTokens, "max-tokens", 0, "Token budget for the extracted list (0 = unlimited)")

	rootCmd.AddCommand(changesCmd)
}

func runChanges(cmd *cobra.Command, args []string) {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	extracted := changelog.Extract(string(data))
	if changesMaxTokens > 0 {
		extracted = changelog.FilterByBudget(extracted, changesMaxTokens)
	}

	if changesFormat == "json" {
		printJSON(extracted)
		return
	}
	if len(extracted) == 0 {
		fmt.Println("No breaking changes found.")
		return
	}
	for _, bc := range extracted {
		fmt.Printf("[%s] %s\n", bc.Severity, bc.Text)
	}
}
