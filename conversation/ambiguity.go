package conversation

import "strings"

// Classification is the Controller's read on how much a query text needs
// clarification before it can be answered well.
type Classification string

const (
	Clear            Classification = "clear"
	Ambiguous        Classification = "ambiguous"
	RequiresContext  Classification = "requires-context"
)

var pronounIndicators = []string{"it", "they", "them", "that", "this", "those", "these"}

var vagueIndicators = []string{"something", "stuff", "thing", "things", "somehow", "whatever"}

var broadIndicators = []string{"all", "everything", "everywhere", "whole", "entire"}

var clearOpeners = []string{"show me", "what is", "explain", "where is", "how does", "list"}

func countHits(lower string, indicators []string) int {
	hits := 0
	words := strings.Fields(lower)
	indicatorSet := make(map[string]struct{}, len(indicators))
	for _, ind := range indicators {
		indicatorSet[ind] = struct{}{}
	}
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'")
		if _, ok := indicatorSet[w]; ok {
			hits++
		}
	}
	return hits
}

// Classify scans the lowercased query for pronoun, vague, and broad
// indicator terms. Zero hits is clear, one or two is ambiguous, three or
// more is requires-context. A clear opener ("show me", "what is", ...)
// does not remove ambiguity — it only would raise confidence in a fuller
// NLU pipeline, which this deterministic scan does not model further.
// Empty queries are requires-context.
func Classify(query string) Classification {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return RequiresContext
	}
	lower := strings.ToLower(trimmed)

	hits := countHits(lower, pronounIndicators) + countHits(lower, vagueIndicators) + countHits(lower, broadIndicators)

	switch {
	case hits == 0:
		return Clear
	case hits <= 2:
		return Ambiguous
	default:
		return RequiresContext
	}
}

// hasClearOpener reports whether query begins with one of the recognized
// clear-intent openers. Exposed for callers that want to log/observe the
// signal even though it does not change Classify's verdict.
func hasClearOpener(query string) bool {
	lower := strings.ToLower(strings.TrimSpace(query))
	for _, opener := range clearOpeners {
		if strings.HasPrefix(lower, opener) {
			return true
		}
	}
	return false
}
