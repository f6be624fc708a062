package changelog

// Severity indicates how breaking a change statement is
type Severity string

const (
	// SeverityBreaking is a definite incompatibility
	SeverityBreaking Severity = "breaking"
	// SeverityRemoval is something deleted
	SeverityRemoval Severity = "removal"
	// SeverityWarning is a deprecation or rename notice
	SeverityWarning Severity = "warning"
)

// severityPriority orders severities for sorting: breaking first.
func severityPriority(s Severity) int {
	switch s {
	case SeverityBreaking:
		return 0
	case SeverityRemoval:
		return 1
	case SeverityWarning:
		return 2
	default:
		return 3
	}
}

// BreakingChange is a single severity-classified statement extracted from
// free-form changelog, diff, or release text. Identity is the normalized
// (whitespace-collapsed, lower-cased) text; two changes with the same key are
// the same change.
type BreakingChange struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}
