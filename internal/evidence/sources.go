package evidence

import (
	"context"
	stderrors "errors"
	"time"

	"depsafe/internal/errors"
)

// The engine never fetches raw bytes itself. These interfaces are the
// contract with the network/VCS collaborators that do.

// DiffFetcher retrieves a unified diff between two published versions of a
// package's contents.
type DiffFetcher interface {
	FetchDiff(ctx context.Context, pkg, fromVersion, toVersion string) (string, error)
}

// Release is one tagged release of a source-control repository.
type Release struct {
	TagName     string
	Name        string
	Body        string
	PublishedAt time.Time
}

// ReleaseLister resolves the source repository for a package and lists its
// tagged releases, newest first.
type ReleaseLister interface {
	ListReleases(ctx context.Context, pkg string) ([]Release, error)
}

// Commit is one entry of a repository's commit history.
type Commit struct {
	SHA     string
	Message string
	Date    time.Time
}

// CommitReader reads the commit history of a package's source repository
// between two versions.
type CommitReader interface {
	ListCommits(ctx context.Context, pkg, fromVersion, toVersion string) ([]Commit, error)
}

// sourceFailureCode classifies a collaborator error for logging: a blown
// deadline is a Timeout, everything else is EvidenceUnavailable.
func sourceFailureCode(err error) errors.ErrorCode {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout
	}
	return errors.EvidenceUnavailable
}
