package changelog

import "sort"

// EstimateTokens approximates the token cost of a text for a downstream
// summarizer. Roughly four characters per token.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// FilterByBudget selects changes to fit a token budget, most severe first.
// Within a severity, original order is kept (the sort is stable). Selection is
// greedy: a change that would push the cumulative estimate past the budget is
// skipped along with everything after it.
func FilterByBudget(changes []BreakingChange, maxTokens int) []BreakingChange {
	if maxTokens <= 0 || len(changes) == 0 {
		return nil
	}

	sorted := make([]BreakingChange, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return severityPriority(sorted[i].Severity) < severityPriority(sorted[j].Severity)
	})

	var selected []BreakingChange
	used := 0
	for _, change := range sorted {
		cost := EstimateTokens(change.Text)
		if used+cost > maxTokens {
			break
		}
		used += cost
		selected = append(selected, change)
	}

	return selected
}
