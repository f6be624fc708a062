package changelog

import (
	"strings"
	"testing"
)

func TestFilterByBudgetSeverityFirst(t *testing.T) {
	changes := []BreakingChange{
		{Text: strings.Repeat("w", 40), Severity: SeverityWarning},
		{Text: strings.Repeat("b", 40), Severity: SeverityBreaking},
		{Text: strings.Repeat("r", 40), Severity: SeverityRemoval},
	}

	// 40 chars ≈ 10 tokens each; budget fits two entries.
	selected := FilterByBudget(changes, 20)
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(selected))
	}
	if selected[0].Severity != SeverityBreaking || selected[1].Severity != SeverityRemoval {
		t.Errorf("expected breaking then removal, got %+v", selected)
	}
}

func TestFilterByBudgetStableWithinSeverity(t *testing.T) {
	changes := []BreakingChange{
		{Text: "first breaking", Severity: SeverityBreaking},
		{Text: "second breaking", Severity: SeverityBreaking},
	}

	selected := FilterByBudget(changes, 100)
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(selected))
	}
	if selected[0].Text != "first breaking" {
		t.Errorf("original order within a severity must be preserved, got %+v", selected)
	}
}

func TestFilterByBudgetZeroBudget(t *testing.T) {
	changes := []BreakingChange{{Text: "anything", Severity: SeverityBreaking}}
	if got := FilterByBudget(changes, 0); got != nil {
		t.Errorf("expected nil for zero budget, got %+v", got)
	}
}

func TestFilterByBudgetDoesNotMutateInput(t *testing.T) {
	changes := []BreakingChange{
		{Text: "warning entry", Severity: SeverityWarning},
		{Text: "breaking entry", Severity: SeverityBreaking},
	}

	FilterByBudget(changes, 100)
	if changes[0].Severity != SeverityWarning {
		t.Error("input slice order must not change")
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens("12345678"); got != 2 {
		t.Errorf("EstimateTokens = %d, want 2", got)
	}
}
