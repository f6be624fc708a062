package evidence

import (
	"context"
	"math"
	"testing"

	"depsafe/internal/deps"
)

// stubStrategy is a canned strategy for chain tests.
type stubStrategy struct {
	name       string
	applicable bool
	result     *StrategyResult
	calls      int
	panics     bool
}

func (s *stubStrategy) Name() string                           { return s.name }
func (s *stubStrategy) IsApplicable(_ deps.PackageUpdate) bool { return s.applicable }
func (s *stubStrategy) TryAnalyze(_ context.Context, _ deps.PackageUpdate) *StrategyResult {
	s.calls++
	if s.panics {
		panic("strategy blew up")
	}
	return s.result
}

func update() deps.PackageUpdate {
	return deps.PackageUpdate{Name: "express", FromVersion: "4.0.0", ToVersion: "5.0.0"}
}

func TestChainShortCircuit(t *testing.T) {
	first := &stubStrategy{name: "first", applicable: true, result: &StrategyResult{
		Content: "weak evidence", Confidence: 0.4, SourceName: "first",
	}}
	second := &stubStrategy{name: "second", applicable: true, result: &StrategyResult{
		Content:             "release notes body",
		BreakingChangeLines: []string{"BREAKING CHANGE: removed middleware signature"},
		Confidence:          0.95,
		SourceName:          "second",
	}}
	third := &stubStrategy{name: "third", applicable: true, result: &StrategyResult{
		Content: "should never run", Confidence: 0.5, SourceName: "third",
	}}

	chain := NewChain([]Strategy{first, second, third}, nil, nil)
	bundle := chain.Gather(context.Background(), update())

	if len(bundle.SourceNames) != 1 || bundle.SourceNames[0] != "second" {
		t.Errorf("sourceNames = %v, want [second]", bundle.SourceNames)
	}
	if bundle.Content != "release notes body" {
		t.Errorf("short-circuit must return content verbatim, got %q", bundle.Content)
	}
	if third.calls != 0 {
		t.Error("strategies after the short-circuit must not run")
	}
}

func TestChainMerge(t *testing.T) {
	first := &stubStrategy{name: "diff", applicable: true, result: &StrategyResult{
		Content:             "diff content",
		BreakingChangeLines: []string{"removed export a", "removed export b"},
		Confidence:          0.4,
		SourceName:          "diff",
	}}
	second := &stubStrategy{name: "commits", applicable: true, result: &StrategyResult{
		Content:             "commit content",
		BreakingChangeLines: []string{"breaking x", "breaking y", "breaking z"},
		Confidence:          0.4,
		SourceName:          "commits",
	}}

	chain := NewChain([]Strategy{first, second}, nil, nil)
	bundle := chain.Gather(context.Background(), update())

	if len(bundle.BreakingChangeLines) != 5 {
		t.Errorf("disjoint sets of 2 and 3 must union to 5, got %d", len(bundle.BreakingChangeLines))
	}
	if bundle.Confidence != 0.4 {
		t.Errorf("confidence = %v, want mean 0.4", bundle.Confidence)
	}
	if len(bundle.SourceNames) != 2 {
		t.Errorf("both sources exceed the inclusion threshold, got %v", bundle.SourceNames)
	}
}

func TestChainMergeExcludesLowConfidenceContent(t *testing.T) {
	noisy := &stubStrategy{name: "noisy", applicable: true, result: &StrategyResult{
		Content:             "noise",
		BreakingChangeLines: []string{"still counted"},
		Confidence:          0.2,
		SourceName:          "noisy",
	}}
	decent := &stubStrategy{name: "decent", applicable: true, result: &StrategyResult{
		Content: "useful", Confidence: 0.6, SourceName: "decent",
	}}

	chain := NewChain([]Strategy{noisy, decent}, nil, nil)
	bundle := chain.Gather(context.Background(), update())

	if len(bundle.SourceNames) != 1 || bundle.SourceNames[0] != "decent" {
		t.Errorf("content below 0.3 must be excluded from sections, got %v", bundle.SourceNames)
	}
	// Breaking lines are a union regardless of the content threshold.
	if len(bundle.BreakingChangeLines) != 1 {
		t.Errorf("breaking lines from excluded sections still count, got %v", bundle.BreakingChangeLines)
	}
	if math.Abs(bundle.Confidence-0.4) > 1e-9 {
		t.Errorf("confidence = %v, want mean of 0.2 and 0.6", bundle.Confidence)
	}
}

func TestChainBottomValue(t *testing.T) {
	failed := &stubStrategy{name: "failed", applicable: true, result: nil}
	inapplicable := &stubStrategy{name: "skipped", applicable: false}

	chain := NewChain([]Strategy{failed, inapplicable}, nil, nil)
	bundle := chain.Gather(context.Background(), update())

	if bundle.Content != NoInformation {
		t.Errorf("content = %q, want bottom value", bundle.Content)
	}
	if bundle.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", bundle.Confidence)
	}
	if len(bundle.BreakingChangeLines) != 0 || len(bundle.SourceNames) != 0 {
		t.Errorf("bottom bundle must be empty, got %+v", bundle)
	}
	if inapplicable.calls != 0 {
		t.Error("inapplicable strategies must not be invoked")
	}
}

func TestChainIsolatesPanics(t *testing.T) {
	broken := &stubStrategy{name: "broken", applicable: true, panics: true}
	working := &stubStrategy{name: "working", applicable: true, result: &StrategyResult{
		Content: "fine", Confidence: 0.5, SourceName: "working",
	}}

	chain := NewChain([]Strategy{broken, working}, nil, nil)
	bundle := chain.Gather(context.Background(), update())

	if len(bundle.SourceNames) != 1 || bundle.SourceNames[0] != "working" {
		t.Errorf("a panicking strategy must not affect the rest of the chain, got %v", bundle.SourceNames)
	}
}

func TestChainDedupsUnionLines(t *testing.T) {
	a := &stubStrategy{name: "a", applicable: true, result: &StrategyResult{
		Content:             "a",
		BreakingChangeLines: []string{"Removed the legacy parser"},
		Confidence:          0.4,
		SourceName:          "a",
	}}
	b := &stubStrategy{name: "b", applicable: true, result: &StrategyResult{
		Content:             "b",
		BreakingChangeLines: []string{"removed the  legacy parser"},
		Confidence:          0.4,
		SourceName:          "b",
	}}

	chain := NewChain([]Strategy{a, b}, nil, nil)
	bundle := chain.Gather(context.Background(), update())

	if len(bundle.BreakingChangeLines) != 1 {
		t.Errorf("case/whitespace variants must dedup, got %v", bundle.BreakingChangeLines)
	}
}

// memCache is a map-backed Cache for chain tests.
type memCache struct {
	entries map[CacheKey]*StrategyResult
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[CacheKey]*StrategyResult)}
}

func (m *memCache) Get(_ context.Context, key CacheKey) (*StrategyResult, bool) {
	r, ok := m.entries[key]
	return r, ok
}

func (m *memCache) Put(_ context.Context, key CacheKey, result *StrategyResult) {
	m.puts++
	m.entries[key] = result
}

func TestChainWriteThroughCache(t *testing.T) {
	strategy := &stubStrategy{name: "diff", applicable: true, result: &StrategyResult{
		Content: "diff body", Confidence: 0.4, SourceName: "diff",
	}}
	cache := newMemCache()
	chain := NewChain([]Strategy{strategy}, cache, nil)

	chain.Gather(context.Background(), update())
	if cache.puts != 1 {
		t.Fatalf("expected one cache write, got %d", cache.puts)
	}

	chain.Gather(context.Background(), update())
	if strategy.calls != 1 {
		t.Errorf("second gather should hit the cache, strategy ran %d times", strategy.calls)
	}
}

func TestChainConfiguredShortCircuit(t *testing.T) {
	first := &stubStrategy{name: "commits", applicable: true, result: &StrategyResult{
		Content: "commit log", Confidence: 0.5, SourceName: "commits",
	}}
	second := &stubStrategy{name: "diff", applicable: true, result: &StrategyResult{
		Content: "diff body", Confidence: 0.8, SourceName: "diff",
	}}

	chain := NewChainWithConfig([]Strategy{first, second}, nil, nil, ChainConfig{
		ShortCircuitConfidence: 0.45,
	})
	bundle := chain.Gather(context.Background(), update())

	if len(bundle.SourceNames) != 1 || bundle.SourceNames[0] != "commits" {
		t.Errorf("0.5 must short-circuit a 0.45 threshold, got %v", bundle.SourceNames)
	}
	if second.calls != 0 {
		t.Error("strategies after the short-circuit must not run")
	}
}

func TestChainConfiguredMergeInclusion(t *testing.T) {
	weak := &stubStrategy{name: "commits", applicable: true, result: &StrategyResult{
		Content: "commit log", Confidence: 0.5, SourceName: "commits",
	}}
	strong := &stubStrategy{name: "diff", applicable: true, result: &StrategyResult{
		Content: "diff body", Confidence: 0.7, SourceName: "diff",
	}}

	chain := NewChainWithConfig([]Strategy{weak, strong}, nil, nil, ChainConfig{
		ShortCircuitConfidence:   0.95,
		MergeInclusionConfidence: 0.6,
	})
	bundle := chain.Gather(context.Background(), update())

	if len(bundle.SourceNames) != 1 || bundle.SourceNames[0] != "diff" {
		t.Errorf("content at 0.5 must be excluded by a 0.6 threshold, got %v", bundle.SourceNames)
	}
	if math.Abs(bundle.Confidence-0.6) > 1e-9 {
		t.Errorf("confidence = %v, want mean of 0.5 and 0.7", bundle.Confidence)
	}
}

func TestChainZeroConfigUsesDefaults(t *testing.T) {
	strategy := &stubStrategy{name: "notes", applicable: true, result: &StrategyResult{
		Content: "notes body", Confidence: 0.9, SourceName: "notes",
	}}

	chain := NewChainWithConfig([]Strategy{strategy}, nil, nil, ChainConfig{})
	bundle := chain.Gather(context.Background(), update())

	if len(bundle.SourceNames) != 1 || bundle.SourceNames[0] != "notes" {
		t.Errorf("0.9 must short-circuit the default 0.8 threshold, got %v", bundle.SourceNames)
	}
}
