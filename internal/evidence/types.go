package evidence

import (
	"context"

	"depsafe/internal/deps"
)

// Calibration constants for the fallback chain. These are deliberate,
// load-bearing values: downstream scoring is tuned against them, so they are
// configurable but default to the literal thresholds.
const (
	// ShortCircuitConfidence is the exclusive lower bound above which a single
	// result ends the chain immediately.
	ShortCircuitConfidence = 0.8
	// MergeInclusionConfidence is the exclusive lower bound a result must
	// exceed for its content section to appear in a merged bundle.
	MergeInclusionConfidence = 0.3
)

// NoInformation is the bottom-value content used when no strategy produced a
// result. Bundle content is never empty-and-meaningless: this string is the
// explicit "nothing found" value.
const NoInformation = "No information available"

// StrategyResult is the output of exactly one strategy invocation.
// Never mutated after creation.
type StrategyResult struct {
	Content             string            `json:"content"`
	BreakingChangeLines []string          `json:"breakingChangeLines"`
	Confidence          float64           `json:"confidence"`
	SourceName          string            `json:"sourceName"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

// Bundle is the fallback chain's merged output.
// Confidence is always within [0,1]; Content is never empty.
type Bundle struct {
	Content             string   `json:"content"`
	BreakingChangeLines []string `json:"breakingChangeLines"`
	Confidence          float64  `json:"confidence"`
	SourceNames         []string `json:"sourceNames"`
}

// Strategy is one pluggable evidence source. Implementations must never let
// an internal failure escape TryAnalyze: network errors, parse errors, and
// timeouts are all recovered and reported as a nil result so the chain can
// continue.
type Strategy interface {
	Name() string
	IsApplicable(update deps.PackageUpdate) bool
	TryAnalyze(ctx context.Context, update deps.PackageUpdate) *StrategyResult
}

// Cache is an optional write-through store for strategy results, keyed by
// (package, fromVersion, toVersion, sourceName). A cache is never required
// for correctness; every failure is treated as a miss.
type Cache interface {
	Get(ctx context.Context, key CacheKey) (*StrategyResult, bool)
	Put(ctx context.Context, key CacheKey, result *StrategyResult)
}

// CacheKey identifies one strategy invocation.
type CacheKey struct {
	Package     string
	FromVersion string
	ToVersion   string
	SourceName  string
}
