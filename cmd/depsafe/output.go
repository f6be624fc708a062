package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"depsafe/internal/analyzer"
	"depsafe/internal/usage"
)

// printJSON writes v to stdout as indented JSON. Analysis output goes to
// stdout; logs stay on stderr.
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(1)
	}
}

func printAssessment(res *analyzer.Result) {
	fmt.Printf("%s: %s -> %s\n", res.Update.Name, res.Update.FromVersion, res.Update.ToVersion)
	fmt.Printf("Risk: %s (score %.1f, confidence %.0f%%)\n",
		strings.ToUpper(string(res.Assessment.Level)), res.Assessment.Score, res.Assessment.Confidence*100)

	if len(res.Evidence.SourceNames) > 0 {
		fmt.Printf("Evidence: %s\n", strings.Join(res.Evidence.SourceNames, ", "))
	} else {
		fmt.Println("Evidence: none")
	}

	if len(res.Assessment.FactorDescriptions) > 0 {
		fmt.Println("\nFactors:")
		for _, f := range res.Assessment.FactorDescriptions {
			fmt.Printf("  - %s\n", f)
		}
	}

	if len(res.BreakingChanges) > 0 {
		fmt.Println("\nBreaking changes:")
		for _, bc := range res.BreakingChanges {
			fmt.Printf("  [%s] %s\n", bc.Severity, bc.Text)
		}
	}

	if res.Usage != nil {
		fmt.Printf("\nUsage: %d total (%d production, %d test, %d config)\n",
			res.Usage.TotalUsageCount, res.Usage.ProductionUsageCount,
			res.Usage.TestUsageCount, res.Usage.ConfigUsageCount)
		if len(res.Usage.CriticalPaths) > 0 {
			fmt.Printf("Critical paths: %s\n", strings.Join(res.Usage.CriticalPaths, ", "))
		}
	}

	if len(res.Assessment.MitigationSteps) > 0 {
		fmt.Println("\nMitigation:")
		for i, step := range res.Assessment.MitigationSteps {
			fmt.Printf("  %d. %s\n", i+1, step)
		}
	}

	fmt.Printf("\nEstimated effort: %s\nTesting scope: %s\n",
		res.Assessment.EstimatedEffort, res.Assessment.TestingScope)
}

func printUsage(analysis *usage.Analysis) {
	fmt.Printf("%s: %d usage(s) found\n", analysis.PackageName, analysis.TotalUsageCount)
	fmt.Printf("  production: %d, test: %d, config: %d\n",
		analysis.ProductionUsageCount, analysis.TestUsageCount, analysis.ConfigUsageCount)
	if analysis.HasDynamicImport {
		fmt.Println("  dynamic import detected")
	}
	if analysis.SkippedFiles > 0 {
		fmt.Printf("  skipped files: %d\n", analysis.SkippedFiles)
	}
	if len(analysis.CriticalPaths) > 0 {
		fmt.Println("Critical paths:")
		for _, p := range analysis.CriticalPaths {
			fmt.Printf("  %s\n", p)
		}
	}
	if len(analysis.Locations) > 0 {
		fmt.Println("Locations:")
		for _, loc := range analysis.Locations {
			fmt.Printf("  %s:%d:%d [%s/%s] %s\n",
				loc.File, loc.Line, loc.Column, loc.Kind, loc.Context, loc.Snippet)
		}
	}
}
