package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(EvidenceUnavailable, "release lookup failed", stderrors.New("connection refused"))

	msg := err.Error()
	if !strings.Contains(msg, "EVIDENCE_UNAVAILABLE") {
		t.Errorf("expected code in message, got: %s", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("expected cause in message, got: %s", msg)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("timeout")
	err := New(Timeout, "strategy deadline exceeded", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil error", nil, ""},
		{"analysis error", Newf(InvalidPackage, "empty package name"), InvalidPackage},
		{"foreign error", stderrors.New("boom"), InternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsInvalidPackage(t *testing.T) {
	if !IsInvalidPackage(Newf(InvalidPackage, "bad name")) {
		t.Error("expected true for InvalidPackage error")
	}
	if IsInvalidPackage(Newf(Timeout, "slow source")) {
		t.Error("expected false for other codes")
	}
}
