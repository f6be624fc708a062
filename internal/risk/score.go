package risk

import (
	"fmt"
	"strings"
)

// Calibration constants for the score formula. These weights are the policy,
// not tunables: level thresholds and downstream gating assume them.
const (
	majorWeight = 20
	minorWeight = 5
	patchWeight = 1

	usagePerReference = 2
	usageTermCap      = 20
	criticalPathBonus = 10

	breakingPerChange = 5
	breakingTermCap   = 20

	noEvidencePenalty      = 10
	partialEvidencePenalty = 5

	coverageMitigationMax = 20

	typeDefinitionScale = 0.3
	lockfileScale       = 0.3
	lockfileCeiling     = 10
)

// Score computes the risk assessment for one set of factors. It is a pure
// function: identical factors always produce an identical assessment.
func Score(f Factors) Assessment {
	coverage := testCoveragePercent(f)

	score := float64(majorWeight*f.Delta.Major + minorWeight*f.Delta.Minor + patchWeight*f.Delta.Patch)
	score += min(float64(usagePerReference*f.ProductionUsageCount), usageTermCap)
	if len(f.CriticalPaths) > 0 {
		score += criticalPathBonus
	}
	score += min(float64(breakingPerChange*len(f.BreakingChanges)), breakingTermCap)
	switch f.EvidenceDepth {
	case DepthNone:
		score += noEvidencePenalty
	case DepthPartial:
		score += partialEvidencePenalty
	}
	score -= coverage / 100 * coverageMitigationMax

	score = applyOverrides(f, score)
	score = clamp(score, 0, 100)

	level := levelForScore(score)
	if f.EvidenceDepth == DepthNone && len(f.BreakingChanges) == 0 {
		level = LevelUnknown
	}
	level = applyLevelBounds(f, level)

	complexity := migrationComplexity(f)
	effort, scope := effortAndScope(level, complexity)

	return Assessment{
		Level:              level,
		Score:              score,
		FactorDescriptions: describeFactors(f, coverage),
		Confidence:         confidence(f, coverage),
		MitigationSteps:    mitigationSteps(f, level, coverage),
		EstimatedEffort:    effort,
		TestingScope:       scope,
	}
}

// testCoveragePercent approximates coverage as the ratio of test-context
// usages to production usages, capped at 100. No production usage means
// coverage is moot and reads as zero.
func testCoveragePercent(f Factors) float64 {
	if f.ProductionUsageCount <= 0 {
		return 0
	}
	ratio := float64(f.TestUsageCount) / float64(f.ProductionUsageCount)
	return min(ratio, 1) * 100
}

// applyOverrides adjusts the base score for package classes whose inherent
// risk differs from what the raw factors suggest.
func applyOverrides(f Factors, score float64) float64 {
	if f.IsTypeDefinition {
		switch {
		case f.Delta.IsPatchOnly():
			score = max(score-10, 0)
		case f.Delta.IsMinorOnly():
			score -= 5
		case f.Delta.Major > 0:
			score = max(score*typeDefinitionScale, 10)
		default:
			score *= typeDefinitionScale
		}
	}
	if f.IsDevDependency {
		score -= 1
	}
	if f.IsLockfileOnly {
		// A lockfile-only change can never be judged worse than low risk.
		score = min(score*lockfileScale, lockfileCeiling)
	}
	return score
}

func levelForScore(score float64) Level {
	switch {
	case score <= 1:
		return LevelSafe
	case score <= 10:
		return LevelLow
	case score < 30:
		return LevelMedium
	case score < 50:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// applyLevelBounds enforces the hardcoded level floors and ceilings that the
// numeric overrides cannot express. These also resolve Unknown: a package
// class with a guaranteed bound yields that bound even with no evidence.
func applyLevelBounds(f Factors, level Level) Level {
	if f.IsTypeDefinition {
		switch {
		case f.Delta.IsPatchOnly():
			return LevelSafe
		case f.Delta.IsMinorOnly():
			return capLevel(level, LevelLow)
		}
	}
	if f.IsLockfileOnly {
		return capLevel(level, LevelLow)
	}
	return level
}

// capLevel returns the lower-ranked of level and ceiling, mapping Unknown to
// the ceiling itself: a cap is a positive guarantee, not missing evidence.
func capLevel(level, ceiling Level) Level {
	if level == LevelUnknown || levelRank[level] > levelRank[ceiling] {
		return ceiling
	}
	return level
}

// migrationComplexity is a coarse estimate from the version jump and the
// number of documented breaking changes.
func migrationComplexity(f Factors) MigrationComplexity {
	switch {
	case f.Delta.Major > 0 && len(f.BreakingChanges) >= 3:
		return ComplexityComplex
	case f.Delta.Major > 0 || len(f.BreakingChanges) > 0:
		return ComplexityModerate
	default:
		return ComplexitySimple
	}
}

// confidence is how sure the engine is about its verdict, independent of the
// verdict itself.
func confidence(f Factors, coverage float64) float64 {
	c := 0.0
	if f.HasChangelog {
		c += 0.4
	}
	switch f.EvidenceDepth {
	case DepthFull:
		c += 0.4
	case DepthPartial:
		c += 0.2
	}
	if coverage > 50 {
		c += 0.2
	}
	return min(c, 1)
}

func describeFactors(f Factors, coverage float64) []string {
	var out []string
	switch {
	case f.Delta.Major > 0:
		out = append(out, fmt.Sprintf("major version bump (%d)", f.Delta.Major))
	case f.Delta.Minor > 0:
		out = append(out, fmt.Sprintf("minor version bump (%d)", f.Delta.Minor))
	case f.Delta.Patch > 0:
		out = append(out, fmt.Sprintf("patch version bump (%d)", f.Delta.Patch))
	}
	if n := len(f.BreakingChanges); n > 0 {
		out = append(out, fmt.Sprintf("%d documented breaking change(s)", n))
	}
	if f.ProductionUsageCount > 0 {
		out = append(out, fmt.Sprintf("%d production usage(s)", f.ProductionUsageCount))
	}
	if len(f.CriticalPaths) > 0 {
		out = append(out, fmt.Sprintf("used on %d critical path(s)", len(f.CriticalPaths)))
	}
	if f.HasDynamicImport {
		out = append(out, "dynamic import detected")
	}
	switch f.EvidenceDepth {
	case DepthNone:
		out = append(out, "no changelog or diff evidence available")
	case DepthPartial:
		out = append(out, "partial evidence (changelog or diff, not both)")
	}
	if f.ProductionUsageCount > 0 && coverage < 50 {
		out = append(out, fmt.Sprintf("test coverage of usage is low (%.0f%%)", coverage))
	}
	if f.IsTypeDefinition {
		out = append(out, "type-definition package")
	}
	if f.IsDevDependency {
		out = append(out, "development dependency")
	}
	if f.IsLockfileOnly {
		out = append(out, "lockfile-only change")
	}
	return out
}

// mitigationSteps generates the ordered advisory list. Informational only;
// never feeds back into the score.
func mitigationSteps(f Factors, level Level, coverage float64) []string {
	var steps []string
	if f.EvidenceDepth == DepthNone {
		steps = append(steps, "Request migration documentation or release notes from the package maintainers")
	}
	if coverage < 50 && f.ProductionUsageCount > 0 {
		steps = append(steps, "Add tests covering the affected usage before upgrading")
	}
	if f.Delta.Major > 0 {
		steps = append(steps, "Review the documented breaking changes for required code updates")
	}
	for i, bc := range f.BreakingChanges {
		if i >= 3 {
			break
		}
		lower := strings.ToLower(bc.Text)
		switch {
		case strings.Contains(lower, "removed"):
			steps = append(steps, fmt.Sprintf("%q: find a replacement for the removed API", bc.Text))
		case strings.Contains(lower, "renamed"):
			steps = append(steps, fmt.Sprintf("%q: update call sites to the new name", bc.Text))
		default:
			steps = append(steps, fmt.Sprintf("Verify impact of: %q", bc.Text))
		}
	}
	if level == LevelHigh || level == LevelCritical {
		steps = append(steps, "Prepare a rollback plan before merging")
	}
	return steps
}

// effortAndScope is the fixed (level, complexity) lookup for the two
// human-facing estimates.
func effortAndScope(level Level, complexity MigrationComplexity) (effort, scope string) {
	switch level {
	case LevelSafe:
		return "none", "none"
	case LevelLow:
		return "minimal", "affected unit tests"
	case LevelMedium:
		if complexity == ComplexityComplex {
			return "moderate", "integration tests for affected paths"
		}
		return "moderate", "unit tests for affected modules"
	case LevelHigh:
		if complexity == ComplexityComplex {
			return "significant", "full regression"
		}
		return "substantial", "integration tests plus manual verification"
	case LevelCritical:
		return "significant", "full regression"
	default: // LevelUnknown
		return "unknown", "exploratory testing"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
