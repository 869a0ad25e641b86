package classify

import "strings"

// resolveCategory maps a model answer onto the vocabulary. Exact
// case-insensitive match keeps the reported confidence; substring
// containment caps it at medium; no match keeps the verbatim answer at low.
func resolveCategory(names []string, answer, reported string) (name, confidence string, match Match) {
	answer = strings.TrimSpace(answer)
	lower := strings.ToLower(answer)

	for _, n := range names {
		if strings.ToLower(n) == lower {
			return n, defaultConfidence(reported, ConfidenceHigh), MatchExact
		}
	}

	for _, n := range names {
		nl := strings.ToLower(n)
		if strings.Contains(lower, nl) || strings.Contains(nl, lower) {
			return n, capConfidence(reported, ConfidenceMedium), MatchSubstring
		}
	}

	return answer, ConfidenceLow, MatchVerbatim
}

func defaultConfidence(reported, fallback string) string {
	if isConfidence(reported) {
		return reported
	}
	return fallback
}

// capConfidence keeps the reported level unless it exceeds ceiling.
func capConfidence(reported, ceiling string) string {
	if !isConfidence(reported) {
		return ceiling
	}
	if rank(reported) > rank(ceiling) {
		return ceiling
	}
	return reported
}

func isConfidence(s string) bool {
	switch s {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

func rank(s string) int {
	switch s {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}
