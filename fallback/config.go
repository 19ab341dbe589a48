package fallback

import "time"

// Kind identifies which wire protocol a chain entry speaks.
type Kind string

const (
	KindOpenAICompatible    Kind = "openai-compatible"
	KindAnthropicCompatible Kind = "anthropic-compatible"
	KindLocal               Kind = "local"
)

// ProviderConfig describes one entry in an embedding or synthesis chain.
type ProviderConfig struct {
	ID           string
	Name         string
	Kind         Kind
	BaseURL      string
	Model        string
	APIKey       string
	Timeout      time.Duration
	ExtraHeaders map[string]string

	// Dimensions is only meaningful for embedding chain entries: the vector
	// length this provider is expected to return.
	Dimensions int
}

// BreakerConfig controls the per-provider circuit breaker. The spec's
// default (3 consecutive failures, 60s cooldown) differs from the
// circuitbreaker package's generic default, so the engine always
// constructs breakers explicitly rather than using circuitbreaker.DefaultConfig.
type BreakerConfig struct {
	ConsecutiveFailureThreshold int
	CooldownPeriod              time.Duration
	CallTimeout                 time.Duration
}

// DefaultBreakerConfig returns the Provider Fallback Engine's default
// breaker tuning.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ConsecutiveFailureThreshold: 3,
		CooldownPeriod:              60 * time.Second,
		CallTimeout:                 30 * time.Second,
	}
}
