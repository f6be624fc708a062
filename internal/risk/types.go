// Package risk turns the gathered evidence for one dependency upgrade into a
// discrete risk verdict with supporting rationale.
package risk

import (
	"depsafe/internal/changelog"
	"depsafe/internal/semver"
)

// Level is the discrete risk verdict, ordered from safest to worst.
// Unknown is distinct from Safe: Safe requires observed evidence, Unknown
// means no evidence was found at all.
type Level string

const (
	LevelUnknown  Level = "unknown"
	LevelSafe     Level = "safe"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// rank orders levels for ceiling/floor comparisons. Unknown ranks lowest so
// that caps never promote a verdict to it.
var levelRank = map[Level]int{
	LevelUnknown:  0,
	LevelSafe:     1,
	LevelLow:      2,
	LevelMedium:   3,
	LevelHigh:     4,
	LevelCritical: 5,
}

// EvidenceDepth describes how much structured evidence backs the assessment.
type EvidenceDepth string

const (
	DepthFull    EvidenceDepth = "full"    // both changelog and diff evidence
	DepthPartial EvidenceDepth = "partial" // one of the two
	DepthNone    EvidenceDepth = "none"
)

// MigrationComplexity estimates how much work the upgrade itself is.
type MigrationComplexity string

const (
	ComplexitySimple   MigrationComplexity = "simple"
	ComplexityModerate MigrationComplexity = "moderate"
	ComplexityComplex  MigrationComplexity = "complex"
)

// Factors is the scoring engine's working record: everything the upstream
// pipeline learned about one PackageUpdate, flattened into the inputs the
// score formula consumes.
type Factors struct {
	Package         string
	Delta           semver.Delta
	BreakingChanges []changelog.BreakingChange

	ProductionUsageCount int
	TestUsageCount       int
	CriticalPaths        []string
	HasDynamicImport     bool

	EvidenceDepth EvidenceDepth
	HasChangelog  bool

	IsTypeDefinition bool
	IsDevDependency  bool
	IsLockfileOnly   bool
}

// Assessment is the engine's final output for one dependency upgrade.
type Assessment struct {
	Level              Level    `json:"level"`
	Score              float64  `json:"score"`
	FactorDescriptions []string `json:"factorDescriptions"`
	Confidence         float64  `json:"confidence"`
	MitigationSteps    []string `json:"mitigationSteps"`
	EstimatedEffort    string   `json:"estimatedEffort"`
	TestingScope       string   `json:"testingScope"`
}
