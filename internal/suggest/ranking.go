package suggest

import "sort"

// RankSuggestions sorts by ImpactScore descending. Ties go to the more
// urgent priority, then to title order.
func RankSuggestions(suggestions []Suggestion) []Suggestion {
	sorted := make([]Suggestion, len(suggestions))
	copy(sorted, suggestions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ImpactScore != b.ImpactScore {
			return a.ImpactScore > b.ImpactScore
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Title < b.Title
	})
	return sorted
}

// ComputeImpact scores a suggestion as (affectedDays * frequency * severity) / effort.
//
//   - affectedDays: days the issue was seen on
//   - frequency: share of the window it covers (0.0-1.0)
//   - severity: how far off target, on a rough 1-10 scale
//   - effort: how hard the change is, on a rough 1-10 scale
//
// Returns 0 when effort is not positive.
func ComputeImpact(affectedDays int, frequency, severity, effort float64) float64 {
	if effort <= 0 {
		return 0
	}
	return float64(affectedDays) * frequency * severity / effort
}
