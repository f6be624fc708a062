// Package changelog extracts severity-classified breaking-change statements
// from unstructured release text.
//
// Two kinds of signals are recognized: inline markers ("BREAKING CHANGE:",
// "[DEPRECATED]", the 💥 glyph, ...) and section headers ("## Breaking
// Changes"), whose list items are treated as breaking regardless of inline
// markers. Output order is scan order; duplicates are collapsed on a
// normalized text key with the first occurrence winning.
package changelog

import (
	"regexp"
	"strings"
)

// markerRule maps an inline pattern to a severity. Rules are evaluated in
// order and the first match per line wins, so the table ordering encodes the
// severity priority (breaking before removal before warning).
type markerRule struct {
	pattern  *regexp.Regexp
	severity Severity
}

var markerRules = []markerRule{
	{regexp.MustCompile(`(?i)\bBREAKING[ -]CHANGES?\b`), SeverityBreaking},
	{regexp.MustCompile(`(?i)\[BREAKING\]|\bBREAKING:`), SeverityBreaking},
	{regexp.MustCompile(`💥`), SeverityBreaking},
	{regexp.MustCompile(`(?i)\bINCOMPATIBLE\b`), SeverityBreaking},
	{regexp.MustCompile(`(?i)\bAPI CHANGE\b`), SeverityBreaking},
	{regexp.MustCompile(`(?i)\[REMOVED\]|\bREMOVED\b`), SeverityRemoval},
	{regexp.MustCompile(`(?i)\bDROP(?:PED|S)? SUPPORT\b`), SeverityRemoval},
	{regexp.MustCompile(`(?i)\[DEPRECATED\]|\bDEPRECATED\b`), SeverityWarning},
	{regexp.MustCompile(`(?i)\[RENAMED\]|\bRENAMED\b`), SeverityWarning},
}

// sectionHeaderRe matches markdown headings that open a breaking-changes
// section. Every list item that follows, until the next heading, is extracted
// as breaking severity.
var sectionHeaderRe = regexp.MustCompile(`(?i)^#{1,6}\s*.*\b(breaking|incompatible)\b.*changes?\b`)

// headingRe matches any markdown heading (closes an open section).
var headingRe = regexp.MustCompile(`^#{1,6}\s`)

// listItemRe matches a markdown list item ("- foo", "* foo", "1. foo").
var listItemRe = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.*)`)

// continuationRe matches an indented continuation of the previous list item.
var continuationRe = regexp.MustCompile(`^\s{2,}(\S.*)`)

// Extract scans multi-line text for breaking-change statements.
// The returned slice preserves scan order and contains no duplicates.
func Extract(text string) []BreakingChange {
	lines := strings.Split(text, "\n")

	var changes []BreakingChange
	seen := make(map[string]bool)

	add := func(text string, severity Severity) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		key := NormalizeKey(text)
		if seen[key] {
			return
		}
		seen[key] = true
		changes = append(changes, BreakingChange{Text: text, Severity: severity})
	}

	inBreakingSection := false
	var pendingItem string

	flushItem := func() {
		if pendingItem != "" {
			add(pendingItem, SeverityBreaking)
			pendingItem = ""
		}
	}

	for _, line := range lines {
		if headingRe.MatchString(line) {
			flushItem()
			inBreakingSection = sectionHeaderRe.MatchString(line)
			continue
		}

		if inBreakingSection {
			if m := listItemRe.FindStringSubmatch(line); m != nil {
				flushItem()
				pendingItem = m[1]
				continue
			}
			if pendingItem != "" {
				if m := continuationRe.FindStringSubmatch(line); m != nil {
					pendingItem += " " + m[1]
					continue
				}
			}
			flushItem()
		}

		if severity, ok := matchInline(line); ok {
			add(line, severity)
		}
	}
	flushItem()

	return changes
}

// matchInline returns the severity of the first marker rule matching the
// line, if any.
func matchInline(line string) (Severity, bool) {
	for _, rule := range markerRules {
		if rule.pattern.MatchString(line) {
			return rule.severity, true
		}
	}
	return "", false
}

// NormalizeKey collapses whitespace and case so that reflowed or recased
// duplicates share an identity.
func NormalizeKey(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
