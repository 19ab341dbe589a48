package graph

import (
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]{2,}`)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "how": true,
	"does": true, "what": true, "where": true, "why": true, "who": true,
	"relate": true, "relates": true, "related": true, "calls": true,
	"call": true, "called": true, "depends": true, "uses": true,
	"this": true, "that": true, "with": true, "from": true, "into": true,
	"explain": true, "show": true, "find": true, "list": true, "all": true,
	"implement": true, "implements": true, "function": true, "method": true,
}

// extractEntityTerms pulls candidate entity-name tokens out of free-text
// query: identifier-shaped words, minus a small stopword list of the query
// vocabulary itself. Order is preserved and duplicates are dropped.
func extractEntityTerms(query string) []string {
	matches := identifierPattern.FindAllString(query, -1)
	seen := make(map[string]bool, len(matches))
	terms := make([]string, 0, len(matches))
	for _, m := range matches {
		lower := strings.ToLower(m)
		if stopwords[lower] || seen[lower] {
			continue
		}
		seen[lower] = true
		terms = append(terms, m)
	}
	return terms
}
