package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"depsafe/internal/analyzer"
	"depsafe/internal/cache"
	"depsafe/internal/config"
	"depsafe/internal/deps"
	"depsafe/internal/evidence"
	"depsafe/internal/logging"
	"depsafe/internal/manifest"
	"depsafe/internal/risk"
	"depsafe/internal/usage"
)

var (
	analyzeFormat       string
	analyzeNotesFile    string
	analyzeDiffFile     string
	analyzeCommitsFile  string
	analyzeManifestFile string
	analyzeChangedFiles []string
	analyzeNoCache      bool
	analyzeNoScan       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <package> <from-version> <to-version>",
	Short: "Assess the risk of a dependency upgrade",
	Long: `Assess the risk of upgrading a dependency from one version to another.

Evidence is gathered from local artifacts (saved release notes, a package
diff, a commit log) through the strategy chain, the codebase under --root is
scanned for actual usage, and everything is fused into a risk level with
mitigation steps.

Examples:
  depsafe analyze express 4.18.2 5.0.0
  depsafe analyze express 4.18.2 5.0.0 --notes CHANGELOG.md --diff express.diff
  depsafe analyze @types/node 24.0.6 24.0.15 --format=json
  depsafe analyze lodash 4.17.20 4.17.21 --changed-files package-lock.json`,
	Args: cobra.ExactArgs(3),
	Run:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "human", "Output format (json, human)")
	analyzeCmd.Flags().StringVar(&analyzeNotesFile, "notes", "", "Local release-notes or changelog file")
	analyzeCmd.Flags().StringVar(&analyzeDiffFile, "diff", "", "Local unified diff between the two versions")
	analyzeCmd.Flags().StringVar(&analyzeCommitsFile, "commits", "", "Local commit log, one message per line")
	analyzeCmd.Flags().StringVar(&analyzeManifestFile, "manifest", "", "Manifest used to classify the dependency (default: <root>/package.json)")
	analyzeCmd.Flags().StringSliceVar(&analyzeChangedFiles, "changed-files", nil, "Files touched by the update, for lockfile-only detection")
	analyzeCmd.Flags().BoolVar(&analyzeNoCache, "no-cache", false, "Bypass the evidence cache")
	analyzeCmd.Flags().BoolVar(&analyzeNoScan, "no-scan", false, "Skip the codebase usage scan")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg, analyzeFormat)

	update := deps.PackageUpdate{
		Name:            args[0],
		FromVersion:     args[1],
		ToVersion:       args[2],
		DependencyClass: classifyDependency(args[0], logger),
	}

	chain := evidence.NewChainWithConfig(buildStrategies(cfg, update, logger), openCache(cfg, logger), logger, evidence.ChainConfig{
		ShortCircuitConfidence:   cfg.Evidence.ShortCircuitConfidence,
		MergeInclusionConfidence: cfg.Evidence.MergeInclusionConfidence,
	})

	var scanner *usage.Scanner
	codebaseRoot := rootFlag
	if analyzeNoScan {
		codebaseRoot = ""
	} else {
		scanner = usage.NewScanner(usage.Options{
			IgnoreDirs:       cfg.Scanner.IgnoreDirs,
			MaxFiles:         cfg.Scanner.MaxFiles,
			MaxFileSizeBytes: cfg.Scanner.MaxFileSizeBytes,
			Concurrency:      cfg.Scanner.Concurrency,
		}, logger)
	}

	a := analyzer.New(chain, scanner, risk.NewRegistry(), logger, analyzer.Options{
		CodebaseRoot:       codebaseRoot,
		ChangedFiles:       analyzeChangedFiles,
		Concurrency:        cfg.Analyzer.Concurrency,
		MaxChangelogTokens: cfg.Analyzer.MaxChangelogTokens,
	})

	result, err := a.Analyze(newContext(), update)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if analyzeFormat == "json" {
		printJSON(result)
		return
	}
	printAssessment(result)
}

// buildStrategies wires the file-backed collaborators into the strategy
// chain, honoring the configured priority order. A strategy with no local
// artifact is simply not registered.
func buildStrategies(cfg *config.Config, update deps.PackageUpdate, logger *logging.Logger) []evidence.Strategy {
	timeout := time.Duration(cfg.Evidence.StrategyTimeoutMs) * time.Millisecond

	var strategies []evidence.Strategy
	for _, name := range cfg.Evidence.StrategyOrder {
		switch name {
		case "release-notes":
			if analyzeNotesFile != "" {
				lister := &evidence.FileReleaseLister{Path: analyzeNotesFile, FallbackTag: update.ToVersion}
				strategies = append(strategies, evidence.NewReleaseNotesStrategy(lister, timeout, logger))
			}
		case "content-diff":
			if analyzeDiffFile != "" {
				fetcher := &evidence.FileDiffFetcher{Path: analyzeDiffFile}
				strategies = append(strategies, evidence.NewContentDiffStrategy(fetcher, timeout, logger))
			}
		case "commit-history":
			if analyzeCommitsFile != "" {
				reader := &evidence.FileCommitReader{Path: analyzeCommitsFile}
				strategies = append(strategies, evidence.NewCommitHistoryStrategy(reader, timeout, logger))
			}
		default:
			logger.Warn("Unknown strategy in config, skipping", map[string]interface{}{
				"strategy": name,
			})
		}
	}
	return strategies
}

// openCache opens the on-disk evidence cache, degrading to no cache on any
// failure.
func openCache(cfg *config.Config, logger *logging.Logger) evidence.Cache {
	if analyzeNoCache || !cfg.Cache.Enabled {
		return nil
	}
	store, err := cache.Open(cache.Options{
		Dir:           filepath.Join(rootFlag, ".depsafe"),
		TTL:           time.Duration(cfg.Cache.TtlHours) * time.Hour,
		MemoryEntries: cfg.Cache.MemoryEntries,
	}, logger)
	if err != nil {
		logger.Warn("Evidence cache unavailable, continuing without it", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return store
}

// classifyDependency reads the manifest to find which dependency class the
// package is declared under, falling back to a pnpm lockfile when the
// manifest is absent. Absence of both is not an error.
func classifyDependency(pkg string, logger *logging.Logger) deps.DependencyClass {
	path := analyzeManifestFile
	if path == "" {
		path = filepath.Join(rootFlag, "package.json")
	}
	m, err := manifest.Load(path)
	if err == nil {
		return m.ClassOf(pkg)
	}
	logger.Debug("No manifest available for classification", map[string]interface{}{
		"path":  path,
		"error": err.Error(),
	})

	lockPath := filepath.Join(rootFlag, "pnpm-lock.yaml")
	lock, lockErr := manifest.LoadPnpmLock(lockPath)
	if lockErr != nil {
		logger.Debug("No lockfile available for classification", map[string]interface{}{
			"path":  lockPath,
			"error": lockErr.Error(),
		})
		return deps.ClassUnknown
	}
	return lock.ClassOf(pkg)
}
