// Package errors defines stable error codes for all depsafe failure modes.
//
// Most failures in the engine are recovered locally and never surface as
// errors: a strategy that cannot reach its evidence source returns no result,
// an unparsable version degrades to a conservative delta, an unscannable file
// is skipped. The codes here exist for the few conditions that do cross
// package boundaries, and for machine-readable logging of recovered failures.
package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// EvidenceUnavailable indicates a strategy could not reach or parse its evidence source
	EvidenceUnavailable ErrorCode = "EVIDENCE_UNAVAILABLE"
	// MalformedVersion indicates a version string could not be parsed even leniently
	MalformedVersion ErrorCode = "MALFORMED_VERSION"
	// UnscannableFile indicates a source file could not be parsed during usage scanning
	UnscannableFile ErrorCode = "UNSCANNABLE_FILE"
	// InvalidPackage indicates the caller supplied an invalid package identifier
	InvalidPackage ErrorCode = "INVALID_PACKAGE"
	// CacheUnavailable indicates the evidence cache could not be opened or written
	CacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	// Timeout indicates an evidence source exceeded its deadline
	Timeout ErrorCode = "TIMEOUT"
	// ScanBudgetExceeded indicates the usage scan hit its file-count or size cap
	ScanBudgetExceeded ErrorCode = "SCAN_BUDGET_EXCEEDED"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// AnalysisError represents a depsafe error with a stable code
type AnalysisError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new AnalysisError
func New(code ErrorCode, message string, cause error) *AnalysisError {
	return &AnalysisError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new AnalysisError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AnalysisError {
	return &AnalysisError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AnalysisError) Unwrap() error {
	return e.cause
}

// WithDetails attaches structured details and returns the error
func (e *AnalysisError) WithDetails(details interface{}) *AnalysisError {
	e.Details = details
	return e
}

// CodeOf returns the stable code of an error, or InternalError for
// errors that did not originate in this package.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if ae, ok := err.(*AnalysisError); ok {
		return ae.Code
	}
	return InternalError
}

// IsInvalidPackage reports whether err is a caller contract violation.
// This is the only condition the engine surfaces as a hard failure.
func IsInvalidPackage(err error) bool {
	return CodeOf(err) == InvalidPackage
}
