package evidence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"depsafe/internal/changelog"
	"depsafe/internal/deps"
	"depsafe/internal/logging"
	"depsafe/internal/semver"
)

// releasesConfidence is the highest-trust evidence source: release notes are
// authored by the maintainers for exactly this purpose. Above the
// short-circuit threshold.
const releasesConfidence = 0.9

// ReleaseNotesStrategy resolves the source repository for a package and
// gathers the bodies of every release tagged strictly within
// (fromVersion, toVersion].
type ReleaseNotesStrategy struct {
	lister  ReleaseLister
	timeout time.Duration
	logger  *logging.Logger
}

// NewReleaseNotesStrategy creates a release-notes strategy backed by the
// given release lister.
func NewReleaseNotesStrategy(lister ReleaseLister, timeout time.Duration, logger *logging.Logger) *ReleaseNotesStrategy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ReleaseNotesStrategy{lister: lister, timeout: timeout, logger: logger}
}

// Name returns the stable source name for this strategy.
func (s *ReleaseNotesStrategy) Name() string {
	return "release-notes"
}

// IsApplicable reports whether the strategy can run for the update.
func (s *ReleaseNotesStrategy) IsApplicable(update deps.PackageUpdate) bool {
	return s.lister != nil && update.FromVersion != "" && update.ToVersion != ""
}

// TryAnalyze lists releases and keeps those whose normalized tag falls within
// the updated range. All failures are recovered and reported as nil.
func (s *ReleaseNotesStrategy) TryAnalyze(ctx context.Context, update deps.PackageUpdate) *StrategyResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	releases, err := s.lister.ListReleases(ctx, update.Name)
	if err != nil {
		s.logger.Debug("Release listing unavailable", map[string]interface{}{
			"package": update.Name,
			"code":    string(sourceFailureCode(err)),
			"error":   err.Error(),
		})
		return nil
	}

	var sections []string
	matched := 0
	for i := len(releases) - 1; i >= 0; i-- { // oldest first
		rel := releases[i]
		if !semver.InRange(rel.TagName, update.FromVersion, update.ToVersion) {
			continue
		}
		matched++
		body := strings.TrimSpace(rel.Body)
		if body == "" {
			continue
		}
		title := rel.Name
		if title == "" {
			title = rel.TagName
		}
		sections = append(sections, "## "+title+"\n\n"+body)
	}

	if matched == 0 {
		return nil
	}

	content := strings.Join(sections, "\n\n")
	if content == "" {
		return nil
	}

	var breaking []string
	for _, change := range changelog.Extract(content) {
		breaking = append(breaking, change.Text)
	}

	return &StrategyResult{
		Content:             content,
		BreakingChangeLines: breaking,
		Confidence:          releasesConfidence,
		SourceName:          s.Name(),
		Metadata: map[string]string{
			"releases": fmt.Sprintf("%d", matched),
		},
	}
}
