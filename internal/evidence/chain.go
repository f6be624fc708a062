// Package evidence gathers breaking-change evidence for a dependency update
// from a prioritized chain of pluggable strategies.
//
// The chain runs strategies sequentially in priority order. A single result
// above the short-circuit threshold is returned verbatim: one highly
// trustworthy source should not be diluted by noisy low-confidence ones.
// Otherwise all partial results are merged, because multiple weak sources are
// still jointly more informative than any one alone.
package evidence

import (
	"context"
	"strings"

	"depsafe/internal/deps"
	"depsafe/internal/errors"
	"depsafe/internal/logging"
)

// Chain orchestrates evidence strategies. Strategies are registered at
// construction into a fixed order; there is no runtime plugin loading and no
// process-wide registry.
type Chain struct {
	strategies     []Strategy
	cache          Cache // optional
	logger         *logging.Logger
	shortCircuit   float64
	mergeInclusion float64
}

// ChainConfig tunes the fusion thresholds. Zero or negative values select
// the package defaults.
type ChainConfig struct {
	ShortCircuitConfidence   float64
	MergeInclusionConfidence float64
}

// NewChain creates a chain over the given strategies, evaluated in order,
// with the default fusion thresholds. cache may be nil.
func NewChain(strategies []Strategy, cache Cache, logger *logging.Logger) *Chain {
	return NewChainWithConfig(strategies, cache, logger, ChainConfig{})
}

// NewChainWithConfig creates a chain with tuned fusion thresholds.
func NewChainWithConfig(strategies []Strategy, cache Cache, logger *logging.Logger, cfg ChainConfig) *Chain {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.ShortCircuitConfidence <= 0 {
		cfg.ShortCircuitConfidence = ShortCircuitConfidence
	}
	if cfg.MergeInclusionConfidence <= 0 {
		cfg.MergeInclusionConfidence = MergeInclusionConfidence
	}
	return &Chain{
		strategies:     strategies,
		cache:          cache,
		logger:         logger,
		shortCircuit:   cfg.ShortCircuitConfidence,
		mergeInclusion: cfg.MergeInclusionConfidence,
	}
}

// Gather runs the chain for one update. It always returns a bundle: when no
// strategy produced anything, the bottom value (no content, confidence 0) is
// returned rather than an error.
func (c *Chain) Gather(ctx context.Context, update deps.PackageUpdate) Bundle {
	var accumulated []*StrategyResult

	for _, strategy := range c.strategies {
		if ctx.Err() != nil {
			break
		}
		if !strategy.IsApplicable(update) {
			continue
		}

		result := c.invoke(ctx, strategy, update)
		if result == nil {
			continue
		}

		if result.Confidence > c.shortCircuit {
			c.logger.Debug("Evidence chain short-circuited", map[string]interface{}{
				"package":    update.Name,
				"source":     result.SourceName,
				"confidence": result.Confidence,
			})
			return Bundle{
				Content:             result.Content,
				BreakingChangeLines: dedupLines(result.BreakingChangeLines),
				Confidence:          clamp01(result.Confidence),
				SourceNames:         []string{result.SourceName},
			}
		}

		accumulated = append(accumulated, result)
	}

	return c.merge(accumulated)
}

// invoke runs one strategy with cache read-through and panic isolation. A
// misbehaving strategy must never take down the chain.
func (c *Chain) invoke(ctx context.Context, strategy Strategy, update deps.PackageUpdate) (result *StrategyResult) {
	key := CacheKey{
		Package:     update.Name,
		FromVersion: update.FromVersion,
		ToVersion:   update.ToVersion,
		SourceName:  strategy.Name(),
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, key); ok {
			return cached
		}
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("Strategy panicked", map[string]interface{}{
				"source":  strategy.Name(),
				"package": update.Name,
				"code":    string(errors.InternalError),
				"panic":   r,
			})
			result = nil
		}
	}()

	result = strategy.TryAnalyze(ctx, update)

	if result != nil && c.cache != nil {
		c.cache.Put(ctx, key, result)
	}

	return result
}

// merge combines accumulated partial results into one bundle.
func (c *Chain) merge(results []*StrategyResult) Bundle {
	if len(results) == 0 {
		return Bundle{
			Content:             NoInformation,
			BreakingChangeLines: []string{},
			Confidence:          0,
			SourceNames:         []string{},
		}
	}

	var sections []string
	var sourceNames []string
	var allLines []string
	sum := 0.0

	for _, r := range results {
		sum += r.Confidence
		allLines = append(allLines, r.BreakingChangeLines...)

		if r.Confidence > c.mergeInclusion && strings.TrimSpace(r.Content) != "" {
			sections = append(sections, "### "+r.SourceName+"\n\n"+r.Content)
			sourceNames = append(sourceNames, r.SourceName)
		}
	}

	content := strings.Join(sections, "\n\n")
	if content == "" {
		content = NoInformation
	}
	if sourceNames == nil {
		sourceNames = []string{}
	}

	return Bundle{
		Content:             content,
		BreakingChangeLines: dedupLines(allLines),
		Confidence:          clamp01(sum / float64(len(results))),
		SourceNames:         sourceNames,
	}
}

// dedupLines removes duplicates preserving first-occurrence order.
func dedupLines(lines []string) []string {
	deduped := []string{}
	seen := make(map[string]bool)
	for _, line := range lines {
		key := strings.Join(strings.Fields(strings.ToLower(line)), " ")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, line)
	}
	return deduped
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
