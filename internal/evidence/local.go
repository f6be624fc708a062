package evidence

import (
	"context"
	"os"
	"regexp"
	"strings"

	"depsafe/internal/errors"
)

// File-backed collaborators. These let a caller who already has the evidence
// artifacts on disk (a saved diff, exported release notes, a git log dump)
// run the same strategies the networked collaborators feed.

// FileDiffFetcher serves a unified diff from a local file.
type FileDiffFetcher struct {
	Path string
}

func (f *FileDiffFetcher) FetchDiff(_ context.Context, pkg, _, _ string) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", errors.Newf(errors.EvidenceUnavailable, "no local diff for %s: %v", pkg, err)
	}
	return string(data), nil
}

// releaseHeadingRe splits a notes file into per-release sections. Headings
// like "## v5.0.0" or "# 5.0.0 (2024-01-01)" start a new release.
var releaseHeadingRe = regexp.MustCompile(`^#{1,3}\s+\[?(v?\d+\.\d+\.\d+[^\s\]]*)\]?`)

// FileReleaseLister serves releases parsed from a local notes file. Each
// version heading starts a release whose body runs to the next heading; a
// file with no version headings becomes a single untagged release.
type FileReleaseLister struct {
	Path string
	// FallbackTag is the tag assigned when the file has no version
	// headings, typically the update's target version.
	FallbackTag string
}

func (f *FileReleaseLister) ListReleases(_ context.Context, pkg string) ([]Release, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.Newf(errors.EvidenceUnavailable, "no local release notes for %s: %v", pkg, err)
	}

	var releases []Release
	var current *Release
	for _, line := range strings.Split(string(data), "\n") {
		if m := releaseHeadingRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				current.Body = strings.TrimSpace(current.Body)
				releases = append(releases, *current)
			}
			current = &Release{TagName: m[1], Name: strings.TrimSpace(strings.TrimLeft(line, "# "))}
			continue
		}
		if current != nil {
			current.Body += line + "\n"
		} else if strings.TrimSpace(line) != "" {
			// Content before any heading: treat the whole file as one
			// untagged release.
			current = &Release{TagName: f.FallbackTag, Body: line + "\n"}
		}
	}
	if current != nil {
		current.Body = strings.TrimSpace(current.Body)
		releases = append(releases, *current)
	}
	return releases, nil
}

// FileCommitReader serves commit messages from a local file, one per line.
// Lines like "<sha> <message>" keep their SHA; bare lines become messages
// with an empty SHA.
type FileCommitReader struct {
	Path string
}

var shaPrefixRe = regexp.MustCompile(`^([0-9a-f]{7,40})\s+(.*)$`)

func (f *FileCommitReader) ListCommits(_ context.Context, pkg, _, _ string) ([]Commit, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.Newf(errors.EvidenceUnavailable, "no local commit log for %s: %v", pkg, err)
	}

	var commits []Commit
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := shaPrefixRe.FindStringSubmatch(line); m != nil {
			commits = append(commits, Commit{SHA: m[1], Message: m[2]})
		} else {
			commits = append(commits, Commit{Message: line})
		}
	}
	return commits, nil
}
