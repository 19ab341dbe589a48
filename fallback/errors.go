package fallback

import "fmt"

// AttemptError records a single provider's failure within a chain attempt.
type AttemptError struct {
	ProviderID string
	Message    string
}

// ExhaustedError is returned when every provider in a chain has failed or
// was skipped because its circuit breaker was open.
type ExhaustedError struct {
	Chain    string
	Attempts []AttemptError
}

func (e *ExhaustedError) Error() string {
	msg := fmt.Sprintf("%s chain exhausted: all %d provider(s) failed", e.Chain, len(e.Attempts))
	for _, a := range e.Attempts {
		msg += fmt.Sprintf("; %s: %s", a.ProviderID, a.Message)
	}
	return msg
}
