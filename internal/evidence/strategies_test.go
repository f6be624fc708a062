package evidence

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"depsafe/internal/logging"
)

type fakeDiffFetcher struct {
	diff string
	err  error
}

func (f *fakeDiffFetcher) FetchDiff(_ context.Context, _, _, _ string) (string, error) {
	return f.diff, f.err
}

const sampleDiff = `diff --git a/index.js b/index.js
--- a/index.js
+++ b/index.js
@@ -1,5 +1,3 @@
-export function createRouter(options) {
-export const legacyParser = parse
+export function createRouter(options, context) {
 const internal = 1
-const notExported = 2
 module.exports.app = app
`

func TestContentDiffStrategy(t *testing.T) {
	strategy := NewContentDiffStrategy(&fakeDiffFetcher{diff: sampleDiff}, time.Second, nil)

	if !strategy.IsApplicable(update()) {
		t.Fatal("expected strategy to be applicable")
	}

	result := strategy.TryAnalyze(context.Background(), update())
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", result.Confidence)
	}
	if result.SourceName != "content-diff" {
		t.Errorf("sourceName = %q", result.SourceName)
	}
	if len(result.BreakingChangeLines) != 2 {
		t.Fatalf("expected 2 removed exports, got %v", result.BreakingChangeLines)
	}
	if !strings.Contains(result.BreakingChangeLines[0], "createRouter") {
		t.Errorf("unexpected first line: %q", result.BreakingChangeLines[0])
	}
}

func TestContentDiffStrategyFetchFailure(t *testing.T) {
	strategy := NewContentDiffStrategy(&fakeDiffFetcher{err: errors.New("registry unreachable")}, time.Second, nil)

	if result := strategy.TryAnalyze(context.Background(), update()); result != nil {
		t.Errorf("fetch failure must yield nil, got %+v", result)
	}
}

func TestContentDiffStrategyUnparsableDiff(t *testing.T) {
	strategy := NewContentDiffStrategy(&fakeDiffFetcher{diff: "this is not a diff"}, time.Second, nil)

	if result := strategy.TryAnalyze(context.Background(), update()); result != nil {
		t.Errorf("unparsable diff must yield nil, got %+v", result)
	}
}

type fakeReleaseLister struct {
	releases []Release
	err      error
}

func (f *fakeReleaseLister) ListReleases(_ context.Context, _ string) ([]Release, error) {
	return f.releases, f.err
}

func TestReleaseNotesStrategyRangeFilter(t *testing.T) {
	lister := &fakeReleaseLister{releases: []Release{
		{TagName: "v5.1.0", Body: "out of range above"},
		{TagName: "v5.0.0", Body: "## Breaking Changes\n- middleware signature changed"},
		{TagName: "v4.5.0", Body: "in range minor"},
		{TagName: "v4.0.0", Body: "lower bound is exclusive"},
		{TagName: "v3.9.0", Body: "out of range below"},
	}}

	strategy := NewReleaseNotesStrategy(lister, time.Second, nil)
	result := strategy.TryAnalyze(context.Background(), update())
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", result.Confidence)
	}
	if strings.Contains(result.Content, "out of range") {
		t.Errorf("releases outside (from, to] must be excluded:\n%s", result.Content)
	}
	if strings.Contains(result.Content, "lower bound") {
		t.Errorf("fromVersion itself must be excluded:\n%s", result.Content)
	}
	// Oldest first: the 4.5.0 body precedes the 5.0.0 body.
	if strings.Index(result.Content, "in range minor") > strings.Index(result.Content, "middleware signature") {
		t.Errorf("releases must be concatenated oldest first:\n%s", result.Content)
	}
	if len(result.BreakingChangeLines) == 0 {
		t.Error("expected breaking lines extracted from release bodies")
	}
}

func TestReleaseNotesStrategyNoMatches(t *testing.T) {
	lister := &fakeReleaseLister{releases: []Release{{TagName: "v1.0.0", Body: "ancient"}}}
	strategy := NewReleaseNotesStrategy(lister, time.Second, nil)

	if result := strategy.TryAnalyze(context.Background(), update()); result != nil {
		t.Errorf("no releases in range must yield nil, got %+v", result)
	}
}

func TestReleaseNotesStrategyListFailure(t *testing.T) {
	strategy := NewReleaseNotesStrategy(&fakeReleaseLister{err: errors.New("no repository")}, time.Second, nil)

	if result := strategy.TryAnalyze(context.Background(), update()); result != nil {
		t.Errorf("lister failure must yield nil, got %+v", result)
	}
}

type fakeCommitReader struct {
	commits []Commit
	err     error
}

func (f *fakeCommitReader) ListCommits(_ context.Context, _, _, _ string) ([]Commit, error) {
	return f.commits, f.err
}

func TestCommitHistoryStrategy(t *testing.T) {
	reader := &fakeCommitReader{commits: []Commit{
		{SHA: "abc", Message: "feat: streaming mode"},
		{SHA: "def", Message: "BREAKING CHANGE: drop Node 14\n\nlong body"},
	}}

	strategy := NewCommitHistoryStrategy(reader, time.Second, nil)
	result := strategy.TryAnalyze(context.Background(), update())
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", result.Confidence)
	}
	if len(result.BreakingChangeLines) != 1 {
		t.Errorf("expected one breaking line, got %v", result.BreakingChangeLines)
	}
	if !strings.Contains(result.Content, "- feat: streaming mode") {
		t.Errorf("unexpected content:\n%s", result.Content)
	}
}

func TestCommitHistoryStrategyEmpty(t *testing.T) {
	strategy := NewCommitHistoryStrategy(&fakeCommitReader{}, time.Second, nil)
	if result := strategy.TryAnalyze(context.Background(), update()); result != nil {
		t.Errorf("empty history must yield nil, got %+v", result)
	}
}

func TestStrategyTimeoutIsRecovered(t *testing.T) {
	slow := &slowDiffFetcher{delay: 50 * time.Millisecond}
	strategy := NewContentDiffStrategy(slow, time.Millisecond, nil)

	if result := strategy.TryAnalyze(context.Background(), update()); result != nil {
		t.Errorf("timeout must behave like any other failure, got %+v", result)
	}
}

type slowDiffFetcher struct {
	delay time.Duration
}

func (f *slowDiffFetcher) FetchDiff(ctx context.Context, _, _, _ string) (string, error) {
	select {
	case <-time.After(f.delay):
		return sampleDiff, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestStrategyTimeoutLogsTimeoutCode(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{
		Format: logging.JSONFormat,
		Level:  logging.DebugLevel,
		Output: &buf,
	})
	slow := &slowDiffFetcher{delay: 50 * time.Millisecond}
	strategy := NewContentDiffStrategy(slow, time.Millisecond, logger)

	if result := strategy.TryAnalyze(context.Background(), update()); result != nil {
		t.Fatalf("timeout must yield nil, got %+v", result)
	}
	if !strings.Contains(buf.String(), "TIMEOUT") {
		t.Errorf("timeout must be logged with its code, got %q", buf.String())
	}
}

func TestStrategyFetchFailureLogsEvidenceCode(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{
		Format: logging.JSONFormat,
		Level:  logging.DebugLevel,
		Output: &buf,
	})
	strategy := NewContentDiffStrategy(&fakeDiffFetcher{err: errors.New("registry unreachable")}, time.Second, logger)

	if result := strategy.TryAnalyze(context.Background(), update()); result != nil {
		t.Fatalf("fetch failure must yield nil, got %+v", result)
	}
	if !strings.Contains(buf.String(), "EVIDENCE_UNAVAILABLE") {
		t.Errorf("fetch failure must be logged with its code, got %q", buf.String())
	}
}
