package evidence

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sourcegraph/go-diff/diff"

	"depsafe/internal/deps"
	"depsafe/internal/logging"
)

// diffConfidence is the self-reported reliability of content-diff evidence.
// High, but not high enough to short-circuit the chain on its own.
const diffConfidence = 0.8

// removedExportRe matches deleted lines that look like a public surface:
// ES module exports, CommonJS exports, and TypeScript declarations.
var removedExportRe = regexp.MustCompile(`^\s*(?:export\s+(?:default\s+)?(?:async\s+)?(?:function|const|let|var|class|interface|type|enum)\b|module\.exports\b|exports\.\w+|declare\s+(?:function|const|class|module)\b)`)

// ContentDiffStrategy compares package payloads between the two versions and
// infers breaking changes from removed exports and signatures.
type ContentDiffStrategy struct {
	fetcher DiffFetcher
	timeout time.Duration
	logger  *logging.Logger
}

// NewContentDiffStrategy creates a content-diff strategy backed by the given
// diff fetcher.
func NewContentDiffStrategy(fetcher DiffFetcher, timeout time.Duration, logger *logging.Logger) *ContentDiffStrategy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ContentDiffStrategy{fetcher: fetcher, timeout: timeout, logger: logger}
}

// Name returns the stable source name for this strategy.
func (s *ContentDiffStrategy) Name() string {
	return "content-diff"
}

// IsApplicable reports whether the strategy can run for the update.
func (s *ContentDiffStrategy) IsApplicable(update deps.PackageUpdate) bool {
	return s.fetcher != nil && update.FromVersion != "" && update.ToVersion != ""
}

// TryAnalyze fetches and parses the content diff. All failures are recovered
// and reported as a nil result.
func (s *ContentDiffStrategy) TryAnalyze(ctx context.Context, update deps.PackageUpdate) *StrategyResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.fetcher.FetchDiff(ctx, update.Name, update.FromVersion, update.ToVersion)
	if err != nil {
		s.logger.Debug("Content diff unavailable", map[string]interface{}{
			"package": update.Name,
			"code":    string(sourceFailureCode(err)),
			"error":   err.Error(),
		})
		return nil
	}
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(raw)).ReadAllFiles()
	if err != nil || len(fileDiffs) == 0 {
		s.logger.Debug("Content diff did not parse", map[string]interface{}{
			"package": update.Name,
		})
		return nil
	}

	breaking := extractRemovedExports(fileDiffs)

	return &StrategyResult{
		Content:             raw,
		BreakingChangeLines: breaking,
		Confidence:          diffConfidence,
		SourceName:          s.Name(),
		Metadata: map[string]string{
			"filesChanged": fmt.Sprintf("%d", len(fileDiffs)),
		},
	}
}

// extractRemovedExports collects deleted lines that removed part of the
// package's public surface.
func extractRemovedExports(fileDiffs []*diff.FileDiff) []string {
	var lines []string
	seen := make(map[string]bool)

	for _, fd := range fileDiffs {
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				if !strings.HasPrefix(line, "-") || strings.HasPrefix(line, "---") {
					continue
				}
				content := strings.TrimSpace(strings.TrimPrefix(line, "-"))
				if !removedExportRe.MatchString(content) {
					continue
				}
				entry := "Removed or changed: " + content
				if seen[entry] {
					continue
				}
				seen[entry] = true
				lines = append(lines, entry)
			}
		}
	}

	return lines
}
