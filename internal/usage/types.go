package usage

// Kind is the syntactic role of one reference to the dependency.
type Kind string

const (
	KindImport         Kind = "import"
	KindFunctionCall   Kind = "function-call"
	KindPropertyAccess Kind = "property-access"
	KindConstructor    Kind = "constructor"
	KindExtends        Kind = "extends"
	KindTypeReference  Kind = "type-reference"
	KindConfig         Kind = "config"
	KindOther          Kind = "other"
)

// Context describes what part of the codebase a reference lives in,
// derived from its file path.
type Context string

const (
	ContextProduction Context = "production"
	ContextTest       Context = "test"
	ContextConfig     Context = "config"
	ContextBuild      Context = "build"
)

// Location is one immutable occurrence of the dependency in the scanned
// codebase. Line and Column are 1-indexed.
type Location struct {
	File    string  `json:"file"`
	Line    int     `json:"line"`
	Column  int     `json:"column"`
	Kind    Kind    `json:"kind"`
	Snippet string  `json:"snippet"`
	Context Context `json:"context"`
}

// Analysis aggregates every location found in one scan. Recomputed each run,
// never persisted.
type Analysis struct {
	PackageName          string     `json:"packageName"`
	TotalUsageCount      int        `json:"totalUsageCount"`
	ProductionUsageCount int        `json:"productionUsageCount"`
	TestUsageCount       int        `json:"testUsageCount"`
	ConfigUsageCount     int        `json:"configUsageCount"`
	CriticalPaths        []string   `json:"criticalPaths"`
	HasDynamicImport     bool       `json:"hasDynamicImport"`
	Locations            []Location `json:"locations"`
	SkippedFiles         int        `json:"skippedFiles"`
}
