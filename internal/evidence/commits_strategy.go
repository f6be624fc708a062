package evidence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"depsafe/internal/changelog"
	"depsafe/internal/deps"
	"depsafe/internal/logging"
)

// commitsConfidence is low: commit messages are noisy and rarely written for
// consumers. Used only as a fallback when better sources produced nothing.
const commitsConfidence = 0.5

// maxCommitMessages caps how much history one strategy result carries.
const maxCommitMessages = 200

// CommitHistoryStrategy reads commit messages between the two versions as a
// low-confidence evidence fallback.
type CommitHistoryStrategy struct {
	reader  CommitReader
	timeout time.Duration
	logger  *logging.Logger
}

// NewCommitHistoryStrategy creates a commit-history strategy backed by the
// given commit reader.
func NewCommitHistoryStrategy(reader CommitReader, timeout time.Duration, logger *logging.Logger) *CommitHistoryStrategy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CommitHistoryStrategy{reader: reader, timeout: timeout, logger: logger}
}

// Name returns the stable source name for this strategy.
func (s *CommitHistoryStrategy) Name() string {
	return "commit-history"
}

// IsApplicable reports whether the strategy can run for the update.
func (s *CommitHistoryStrategy) IsApplicable(update deps.PackageUpdate) bool {
	return s.reader != nil && update.FromVersion != "" && update.ToVersion != ""
}

// TryAnalyze reads the commit log. All failures are recovered and reported
// as nil.
func (s *CommitHistoryStrategy) TryAnalyze(ctx context.Context, update deps.PackageUpdate) *StrategyResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	commits, err := s.reader.ListCommits(ctx, update.Name, update.FromVersion, update.ToVersion)
	if err != nil {
		s.logger.Debug("Commit history unavailable", map[string]interface{}{
			"package": update.Name,
			"code":    string(sourceFailureCode(err)),
			"error":   err.Error(),
		})
		return nil
	}
	if len(commits) == 0 {
		return nil
	}
	if len(commits) > maxCommitMessages {
		commits = commits[:maxCommitMessages]
	}

	var lines []string
	for _, c := range commits {
		msg := strings.TrimSpace(c.Message)
		if msg == "" {
			continue
		}
		// Fold multi-line messages so each commit is one logical entry.
		msg = strings.Join(strings.Fields(msg), " ")
		lines = append(lines, "- "+msg)
	}
	if len(lines) == 0 {
		return nil
	}

	content := strings.Join(lines, "\n")

	var breaking []string
	for _, change := range changelog.Extract(content) {
		breaking = append(breaking, change.Text)
	}

	return &StrategyResult{
		Content:             content,
		BreakingChangeLines: breaking,
		Confidence:          commitsConfidence,
		SourceName:          s.Name(),
		Metadata: map[string]string{
			"commits": fmt.Sprintf("%d", len(commits)),
		},
	}
}
