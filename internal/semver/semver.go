// Package semver parses and compares dependency version strings.
//
// Registry versions are frequently malformed (build metadata, date stamps,
// vendor prefixes), so parsing never fails hard: strict parsing falls back to
// coercion of the leading numeric sequence, and an unparsable pair degrades to
// a conservative major-bump delta. Overstating risk for garbage input is the
// intended policy.
package semver

import (
	"regexp"
	"strconv"
	"strings"
)

// Version is a parsed semantic version.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
}

// Delta is the per-component difference between two versions.
// Components can be negative when versions are out of natural order.
type Delta struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// ConservativeDelta is returned when either version cannot be parsed.
// An unparsable jump is treated as a major bump for safety.
var ConservativeDelta = Delta{Major: 1, Minor: 0, Patch: 0}

var (
	strictRe = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z.-]+))?(?:\+[0-9A-Za-z.-]+)?$`)
	coerceRe = regexp.MustCompile(`(\d+)(?:\.(\d+))?(?:\.(\d+))?`)
)

// Parse attempts a strict semantic-version parse.
func Parse(s string) (Version, bool) {
	m := strictRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, false
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return Version{Major: major, Minor: minor, Patch: patch, Prerelease: m[4]}, true
}

// Coerce extracts the leading numeric dotted sequence from a version-ish
// string ("5", "5.1", "5.1.2-rc.1+build", "express@5.0.0").
func Coerce(s string) (Version, bool) {
	m := coerceRe.FindStringSubmatch(s)
	if m == nil {
		return Version{}, false
	}
	major, _ := strconv.Atoi(m[1])
	v := Version{Major: major}
	if m[2] != "" {
		v.Minor, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v, true
}

// parseLenient tries strict parsing first, then coercion.
func parseLenient(s string) (Version, bool) {
	if v, ok := Parse(s); ok {
		return v, true
	}
	return Coerce(s)
}

// ParseDelta computes the component-wise difference between two version
// strings. If either side cannot be parsed even leniently, the conservative
// default (a major bump) is returned. Never panics, never errors.
func ParseDelta(from, to string) Delta {
	fromV, okFrom := parseLenient(from)
	toV, okTo := parseLenient(to)
	if !okFrom || !okTo {
		return ConservativeDelta
	}
	return Delta{
		Major: toV.Major - fromV.Major,
		Minor: toV.Minor - fromV.Minor,
		Patch: toV.Patch - fromV.Patch,
	}
}

// Compare returns -1, 0, or 1 comparing a to b by major, minor, patch.
// A prerelease sorts before the corresponding release.
func Compare(a, b Version) int {
	if a.Major != b.Major {
		return sign(a.Major - b.Major)
	}
	if a.Minor != b.Minor {
		return sign(a.Minor - b.Minor)
	}
	if a.Patch != b.Patch {
		return sign(a.Patch - b.Patch)
	}
	if a.Prerelease == b.Prerelease {
		return 0
	}
	if a.Prerelease == "" {
		return 1
	}
	if b.Prerelease == "" {
		return -1
	}
	return strings.Compare(a.Prerelease, b.Prerelease)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// InRange reports whether a release tag falls strictly within (from, to].
// Tags are normalized leniently, so "v5.1.0" and "express@5.1.0" both work.
// An unparsable tag is never in range.
func InRange(tag, from, to string) bool {
	tagV, ok := parseLenient(tag)
	if !ok {
		return false
	}
	fromV, okFrom := parseLenient(from)
	toV, okTo := parseLenient(to)
	if !okFrom || !okTo {
		return false
	}
	return Compare(tagV, fromV) > 0 && Compare(tagV, toV) <= 0
}

// IsMajor reports whether the delta includes a major-version jump.
func (d Delta) IsMajor() bool {
	return d.Major != 0
}

// IsMinorOnly reports whether the delta is a minor bump with no major change.
func (d Delta) IsMinorOnly() bool {
	return d.Major == 0 && d.Minor != 0
}

// IsPatchOnly reports whether the delta touches only the patch component.
func (d Delta) IsPatchOnly() bool {
	return d.Major == 0 && d.Minor == 0 && d.Patch != 0
}
