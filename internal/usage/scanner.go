// Package usage statically scans a codebase for references to a dependency.
//
// Source files get a tree-sitter syntax model: import/require statements
// whose specifier names the dependency (or a subpath of it) introduce
// bindings, and every subsequent reference to a binding is classified by its
// syntactic role. Known configuration and lock files are scanned for literal
// occurrences instead. Unparsable or unsupported files are skipped silently;
// a scan never fails because one file did.
package usage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"depsafe/internal/errors"
	"depsafe/internal/logging"
)

// Options configures a scan.
type Options struct {
	// IgnoreDirs are directory basenames skipped entirely.
	IgnoreDirs []string
	// MaxFiles caps how many source files one scan will parse.
	MaxFiles int
	// MaxFileSizeBytes skips source files larger than this.
	MaxFileSizeBytes int64
	// Concurrency bounds the per-file worker pool.
	Concurrency int
}

// DefaultOptions returns the scan defaults.
func DefaultOptions() Options {
	return Options{
		IgnoreDirs:       []string{"node_modules", "vendor", ".git", "dist", "build", "out", "coverage", ".next"},
		MaxFiles:         5000,
		MaxFileSizeBytes: 1 << 20,
		Concurrency:      8,
	}
}

// Scanner finds and classifies dependency usage in a codebase.
type Scanner struct {
	opts   Options
	logger *logging.Logger
}

// NewScanner creates a scanner. Zero-valued options fall back to defaults.
func NewScanner(opts Options, logger *logging.Logger) *Scanner {
	defaults := DefaultOptions()
	if opts.IgnoreDirs == nil {
		opts.IgnoreDirs = defaults.IgnoreDirs
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = defaults.MaxFiles
	}
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = defaults.MaxFileSizeBytes
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaults.Concurrency
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{opts: opts, logger: logger}
}

type scanFile struct {
	absPath string
	relPath string
	lang    Language
}

// Scan walks the codebase rooted at root and returns the usage analysis for
// pkg. The only hard failure is an invalid package name or an unreadable
// root; per-file problems are counted and skipped.
func (s *Scanner) Scan(ctx context.Context, root, pkg string) (*Analysis, error) {
	if pkg == "" {
		return nil, errors.Newf(errors.InvalidPackage, "package name is empty")
	}
	if _, err := os.Stat(root); err != nil {
		return nil, errors.New(errors.InvalidPackage, "codebase root is not readable", err)
	}
	if !astAvailable() {
		s.logger.Warn("Syntax-model extraction unavailable, scanning config files only", map[string]interface{}{
			"root": root,
		})
	}

	sourceFiles, configFiles, capped := s.collectFiles(root)
	if capped {
		s.logger.Warn("Scan file cap reached", map[string]interface{}{
			"root":     root,
			"maxFiles": s.opts.MaxFiles,
			"code":     string(errors.ScanBudgetExceeded),
		})
	}

	results := make([][]Location, len(sourceFiles))
	dynamics := make([]bool, len(sourceFiles))
	var skippedMu sync.Mutex
	skipped := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, file := range sourceFiles {
		i, file := i, file
		g.Go(func() error {
			source, err := os.ReadFile(file.absPath)
			if err != nil {
				s.countSkip(&skippedMu, &skipped, file.relPath, err)
				return nil
			}
			// One parser per file: sitter.Parser is not safe for
			// concurrent use.
			locations, dynamic, err := newExtractor().extractSource(gctx, file.relPath, source, file.lang, pkg)
			if err != nil {
				s.countSkip(&skippedMu, &skipped, file.relPath, err)
				return nil
			}
			results[i] = locations
			dynamics[i] = dynamic
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	var all []Location
	hasDynamic := false
	for i := range results {
		all = append(all, results[i]...)
		hasDynamic = hasDynamic || dynamics[i]
	}

	for _, cf := range configFiles {
		locations, err := scanConfigFile(cf.absPath, cf.relPath, pkg)
		if err != nil {
			skipped++
			continue
		}
		all = append(all, locations...)
	}

	analysis := aggregate(pkg, all)
	analysis.HasDynamicImport = hasDynamic
	analysis.SkippedFiles = skipped
	return analysis, nil
}

func (s *Scanner) countSkip(mu *sync.Mutex, skipped *int, relPath string, err error) {
	mu.Lock()
	*skipped++
	mu.Unlock()
	s.logger.Debug("Skipped unscannable file", map[string]interface{}{
		"file":  relPath,
		"code":  string(errors.UnscannableFile),
		"error": err.Error(),
	})
}

// collectFiles walks the tree, honoring ignore rules and the file cap.
func (s *Scanner) collectFiles(root string) (sources, configs []scanFile, capped bool) {
	ignored := make(map[string]bool, len(s.opts.IgnoreDirs))
	for _, d := range s.opts.IgnoreDirs {
		ignored[d] = true
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if ignored[d.Name()] && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if len(sources) >= s.opts.MaxFiles {
			capped = true
			return filepath.SkipAll
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if isConfigFile(d.Name()) {
			configs = append(configs, scanFile{absPath: path, relPath: rel})
			return nil
		}

		lang, ok := languageFromExtension(filepath.Ext(d.Name()))
		if !ok {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > s.opts.MaxFileSizeBytes {
			return nil
		}
		sources = append(sources, scanFile{absPath: path, relPath: rel, lang: lang})
		return nil
	})

	return sources, configs, capped
}

// aggregate dedups locations and computes the summary counts.
func aggregate(pkg string, locations []Location) *Analysis {
	type dedupKey struct {
		file string
		line int
		kind Kind
	}
	seen := make(map[dedupKey]bool)
	deduped := make([]Location, 0, len(locations))
	for _, loc := range locations {
		key := dedupKey{loc.File, loc.Line, loc.Kind}
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, loc)
	}

	sort.Slice(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Kind < b.Kind
	})

	analysis := &Analysis{
		PackageName: pkg,
		Locations:   deduped,
	}

	criticalSet := make(map[string]bool)
	for _, loc := range deduped {
		analysis.TotalUsageCount++
		switch loc.Context {
		case ContextProduction:
			analysis.ProductionUsageCount++
			if loc.Kind != KindConfig {
				criticalSet[loc.File] = true
			}
		case ContextTest:
			analysis.TestUsageCount++
		case ContextConfig:
			analysis.ConfigUsageCount++
		}
	}

	analysis.CriticalPaths = make([]string, 0, len(criticalSet))
	for file := range criticalSet {
		analysis.CriticalPaths = append(analysis.CriticalPaths, file)
	}
	sort.Strings(analysis.CriticalPaths)

	return analysis
}
