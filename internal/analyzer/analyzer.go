// Package analyzer orchestrates the full pipeline for one dependency
// upgrade: version arithmetic, evidence gathering, breaking-change
// extraction, usage scanning, and risk scoring.
package analyzer

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"depsafe/internal/changelog"
	"depsafe/internal/deps"
	"depsafe/internal/errors"
	"depsafe/internal/evidence"
	"depsafe/internal/logging"
	"depsafe/internal/risk"
	"depsafe/internal/semver"
	"depsafe/internal/usage"
)

// Options configures an analyzer.
type Options struct {
	// CodebaseRoot enables the usage scan when non-empty.
	CodebaseRoot string
	// ChangedFiles is the change set being gated, used for lockfile-only
	// detection. Nil means unknown.
	ChangedFiles []string
	// Concurrency bounds AnalyzeAll's parallel pipelines.
	Concurrency int
	// MaxChangelogTokens budgets the breaking-change list carried into the
	// assessment, most severe first. Zero means unlimited.
	MaxChangelogTokens int
}

const defaultConcurrency = 4

// Analyzer runs the analysis pipeline. Construct one per run configuration;
// it holds no per-update state and is safe for concurrent use.
type Analyzer struct {
	chain    *evidence.Chain
	scanner  *usage.Scanner
	registry *risk.Registry
	logger   *logging.Logger
	opts     Options
}

// New creates an analyzer. The scanner may be nil when no codebase is
// available; the registry defaults when nil.
func New(chain *evidence.Chain, scanner *usage.Scanner, registry *risk.Registry, logger *logging.Logger, opts Options) *Analyzer {
	if registry == nil {
		registry = risk.NewRegistry()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Analyzer{
		chain:    chain,
		scanner:  scanner,
		registry: registry,
		logger:   logger,
		opts:     opts,
	}
}

// Result is the complete outcome for one PackageUpdate.
type Result struct {
	RunID           string                     `json:"runId"`
	Update          deps.PackageUpdate         `json:"update"`
	Delta           semver.Delta               `json:"delta"`
	Evidence        evidence.Bundle            `json:"evidence"`
	BreakingChanges []changelog.BreakingChange `json:"breakingChanges"`
	Usage           *usage.Analysis            `json:"usage,omitempty"`
	Assessment      risk.Assessment            `json:"assessment"`
	Err             error                      `json:"-"`
}

// Analyze is the primary entry point: PackageUpdate in, RiskAssessment out.
// The only hard failure is an invalid package identifier; every other
// problem degrades into the assessment itself.
func (a *Analyzer) Analyze(ctx context.Context, update deps.PackageUpdate) (*Result, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	a.logger.Info("Analyzing dependency update", map[string]interface{}{
		"runId":   runID,
		"package": update.Name,
		"from":    update.FromVersion,
		"to":      update.ToVersion,
	})

	delta := semver.ParseDelta(update.FromVersion, update.ToVersion)
	for _, v := range []string{update.FromVersion, update.ToVersion} {
		if _, ok := semver.Coerce(v); !ok {
			a.logger.Warn("Version did not parse, assuming a major upgrade", map[string]interface{}{
				"runId":   runID,
				"package": update.Name,
				"version": v,
				"code":    string(errors.MalformedVersion),
			})
		}
	}

	bundle := a.chain.Gather(ctx, update)
	breaking := extractBreaking(bundle)
	if a.opts.MaxChangelogTokens > 0 {
		breaking = changelog.FilterByBudget(breaking, a.opts.MaxChangelogTokens)
	}

	var usageAnalysis *usage.Analysis
	if a.scanner != nil && a.opts.CodebaseRoot != "" {
		scanned, err := a.scanner.Scan(ctx, a.opts.CodebaseRoot, update.Name)
		if err != nil {
			// A failed scan degrades to "no usage information", it never
			// aborts the run.
			a.logger.Warn("Usage scan failed", map[string]interface{}{
				"runId":   runID,
				"package": update.Name,
				"error":   err.Error(),
			})
		} else {
			usageAnalysis = scanned
		}
	}

	factors := a.buildFactors(update, delta, bundle, breaking, usageAnalysis)
	assessment := risk.Score(factors)

	a.logger.Info("Assessment complete", map[string]interface{}{
		"runId":   runID,
		"package": update.Name,
		"level":   string(assessment.Level),
		"score":   assessment.Score,
	})

	return &Result{
		RunID:           runID,
		Update:          update,
		Delta:           delta,
		Evidence:        bundle,
		BreakingChanges: breaking,
		Usage:           usageAnalysis,
		Assessment:      assessment,
	}, nil
}

// AnalyzeAll runs one pipeline per update in parallel under a bounded
// limiter. The returned slice is aligned with the input; a failed update
// carries its error in Result.Err and never disturbs its neighbors.
func (a *Analyzer) AnalyzeAll(ctx context.Context, updates []deps.PackageUpdate) []Result {
	results := make([]Result, len(updates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	for i, update := range updates {
		i, update := i, update
		g.Go(func() error {
			res, err := a.Analyze(gctx, update)
			if err != nil {
				results[i] = Result{Update: update, Err: err}
				return nil
			}
			results[i] = *res
			return nil
		})
	}
	_ = g.Wait() // per-update errors live in the results

	return results
}

// extractBreaking merges the extractor's findings on the bundle content with
// the breaking-change lines the strategies already identified. Strategy
// lines are trusted as breaking; extractor output keeps its own severity.
func extractBreaking(bundle evidence.Bundle) []changelog.BreakingChange {
	out := changelog.Extract(bundle.Content)
	seen := make(map[string]bool, len(out))
	for _, bc := range out {
		seen[changelog.NormalizeKey(bc.Text)] = true
	}
	for _, line := range bundle.BreakingChangeLines {
		key := changelog.NormalizeKey(line)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, changelog.BreakingChange{Text: line, Severity: changelog.SeverityBreaking})
	}
	return out
}

func (a *Analyzer) buildFactors(update deps.PackageUpdate, delta semver.Delta, bundle evidence.Bundle, breaking []changelog.BreakingChange, usageAnalysis *usage.Analysis) risk.Factors {
	f := risk.Factors{
		Package:          update.Name,
		Delta:            delta,
		BreakingChanges:  breaking,
		EvidenceDepth:    evidenceDepth(bundle.SourceNames),
		HasChangelog:     hasChangelogSource(bundle.SourceNames),
		IsTypeDefinition: update.IsTypeDefinition() || a.registry.IsTypeDefinition(update.Name),
		IsDevDependency:  update.IsDevDependency(),
		IsLockfileOnly:   a.registry.IsLockfileOnly(a.opts.ChangedFiles),
	}
	if usageAnalysis != nil {
		f.ProductionUsageCount = usageAnalysis.ProductionUsageCount
		f.TestUsageCount = usageAnalysis.TestUsageCount
		f.CriticalPaths = usageAnalysis.CriticalPaths
		f.HasDynamicImport = usageAnalysis.HasDynamicImport
	}
	return f
}

// evidenceDepth classifies the bundle's sources: full needs both a
// changelog-kind source and the content diff, partial needs one of the two.
func evidenceDepth(sourceNames []string) risk.EvidenceDepth {
	changelogKind := hasChangelogSource(sourceNames)
	diffKind := false
	for _, name := range sourceNames {
		if name == "content-diff" {
			diffKind = true
		}
	}
	switch {
	case changelogKind && diffKind:
		return risk.DepthFull
	case changelogKind || diffKind:
		return risk.DepthPartial
	default:
		return risk.DepthNone
	}
}

func hasChangelogSource(sourceNames []string) bool {
	for _, name := range sourceNames {
		if name == "release-notes" || name == "commit-history" {
			return true
		}
	}
	return false
}
