package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete depsafe configuration (v1 schema)
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Evidence EvidenceConfig `json:"evidence" mapstructure:"evidence"`
	Scanner  ScannerConfig  `json:"scanner" mapstructure:"scanner"`
	Cache    CacheConfig    `json:"cache" mapstructure:"cache"`
	Analyzer AnalyzerConfig `json:"analyzer" mapstructure:"analyzer"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// EvidenceConfig contains fallback-chain configuration
type EvidenceConfig struct {
	// StrategyOrder is the fixed priority order of the chain.
	StrategyOrder []string `json:"strategyOrder" mapstructure:"strategyOrder"`
	// ShortCircuitConfidence is the exclusive lower bound that ends the
	// chain immediately.
	ShortCircuitConfidence float64 `json:"shortCircuitConfidence" mapstructure:"shortCircuitConfidence"`
	// MergeInclusionConfidence is the exclusive lower bound for a section
	// to appear in a merged bundle.
	MergeInclusionConfidence float64 `json:"mergeInclusionConfidence" mapstructure:"mergeInclusionConfidence"`
	// StrategyTimeoutMs bounds each strategy invocation.
	StrategyTimeoutMs int `json:"strategyTimeoutMs" mapstructure:"strategyTimeoutMs"`
}

// ScannerConfig contains usage-scanner configuration
type ScannerConfig struct {
	IgnoreDirs       []string `json:"ignoreDirs" mapstructure:"ignoreDirs"`
	MaxFiles         int      `json:"maxFiles" mapstructure:"maxFiles"`
	MaxFileSizeBytes int64    `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	Concurrency      int      `json:"concurrency" mapstructure:"concurrency"`
}

// CacheConfig contains evidence-cache configuration
type CacheConfig struct {
	Enabled       bool `json:"enabled" mapstructure:"enabled"`
	TtlHours      int  `json:"ttlHours" mapstructure:"ttlHours"`
	MemoryEntries int  `json:"memoryEntries" mapstructure:"memoryEntries"`
}

// AnalyzerConfig contains pipeline configuration
type AnalyzerConfig struct {
	// Concurrency bounds how many dependency pipelines run in parallel.
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
	// MaxChangelogTokens is the token budget for downstream summarizers.
	MaxChangelogTokens int `json:"maxChangelogTokens" mapstructure:"maxChangelogTokens"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Evidence: EvidenceConfig{
			StrategyOrder:            []string{"release-notes", "content-diff", "commit-history"},
			ShortCircuitConfidence:   0.8,
			MergeInclusionConfidence: 0.3,
			StrategyTimeoutMs:        30000,
		},
		Scanner: ScannerConfig{
			IgnoreDirs:       []string{"node_modules", "vendor", ".git", "dist", "build", "out", "coverage", ".next"},
			MaxFiles:         5000,
			MaxFileSizeBytes: 1000000,
			Concurrency:      8,
		},
		Cache: CacheConfig{
			Enabled:       true,
			TtlHours:      168,
			MemoryEntries: 256,
		},
		Analyzer: AnalyzerConfig{
			Concurrency:        4,
			MaxChangelogTokens: 4000,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .depsafe/config.json, with
// DEPSAFE_* environment variables overriding file values.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("version", defaults.Version)
	v.SetDefault("repoRoot", defaults.RepoRoot)
	v.SetDefault("evidence.strategyOrder", defaults.Evidence.StrategyOrder)
	v.SetDefault("evidence.shortCircuitConfidence", defaults.Evidence.ShortCircuitConfidence)
	v.SetDefault("evidence.mergeInclusionConfidence", defaults.Evidence.MergeInclusionConfidence)
	v.SetDefault("evidence.strategyTimeoutMs", defaults.Evidence.StrategyTimeoutMs)
	v.SetDefault("scanner.ignoreDirs", defaults.Scanner.IgnoreDirs)
	v.SetDefault("scanner.maxFiles", defaults.Scanner.MaxFiles)
	v.SetDefault("scanner.maxFileSizeBytes", defaults.Scanner.MaxFileSizeBytes)
	v.SetDefault("scanner.concurrency", defaults.Scanner.Concurrency)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.ttlHours", defaults.Cache.TtlHours)
	v.SetDefault("cache.memoryEntries", defaults.Cache.MemoryEntries)
	v.SetDefault("analyzer.concurrency", defaults.Analyzer.Concurrency)
	v.SetDefault("analyzer.maxChangelogTokens", defaults.Analyzer.MaxChangelogTokens)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".depsafe"))

	v.SetEnvPrefix("DEPSAFE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file: defaults plus env overrides still apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to .depsafe/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".depsafe")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Evidence.ShortCircuitConfidence < 0 || c.Evidence.ShortCircuitConfidence > 1 {
		return &ConfigError{Field: "evidence.shortCircuitConfidence", Message: "must be within [0,1]"}
	}
	if c.Evidence.MergeInclusionConfidence < 0 || c.Evidence.MergeInclusionConfidence > 1 {
		return &ConfigError{Field: "evidence.mergeInclusionConfidence", Message: "must be within [0,1]"}
	}
	if c.Scanner.Concurrency < 1 {
		return &ConfigError{Field: "scanner.concurrency", Message: "must be at least 1"}
	}
	if c.Analyzer.Concurrency < 1 {
		return &ConfigError{Field: "analyzer.concurrency", Message: "must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
