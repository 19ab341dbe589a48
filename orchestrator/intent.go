package orchestrator

import (
	"regexp"
	"strings"

	"github.com/kbgateway/kbgateway/gateway"
)

var (
	relationshipPattern = regexp.MustCompile(`\b(depends on|calls|relate to|relates to|related to|relationship|connected to|caller|callee)\b`)
	codePattern         = regexp.MustCompile(`\b(function|method|class|variable|implement|implements|inherits|code|signature|struct|interface)\b`)
	explanationPattern  = regexp.MustCompile(`\b(why|how does|how do|explain|understand|meaning of)\b`)
	locationPattern     = regexp.MustCompile(`\b(where|locate|which file|find|location of)\b`)
)

// classifyIntent classifies query text into one of
// {relationship, code, explanation, location, both, unknown} by keyword
// regex, following the precedence order relationship > code > explanation >
// location > both. An empty query has no intent to classify.
func classifyIntent(query string) gateway.Intent {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return gateway.IntentUnknown
	}
	lower := strings.ToLower(trimmed)

	switch {
	case relationshipPattern.MatchString(lower):
		return gateway.IntentRelationship
	case codePattern.MatchString(lower):
		return gateway.IntentCode
	case explanationPattern.MatchString(lower):
		return gateway.IntentExplanation
	case locationPattern.MatchString(lower):
		return gateway.IntentLocation
	default:
		return gateway.IntentBoth
	}
}
