package llm

import (
	"context"

	"github.com/kbgateway/kbgateway/llm/circuitbreaker"
	"github.com/kbgateway/kbgateway/llm/retry"
	"go.uber.org/zap"
)

// ResilientProvider wraps a Provider with retry and circuit-breaker behavior.
// This is the decorator every chain entry in the Provider Fallback Engine is
// built from: the chain never talks to a raw Provider directly.
type ResilientProvider struct {
	provider       Provider
	retryer        retry.Retryer
	circuitBreaker circuitbreaker.CircuitBreaker
	logger         *zap.Logger
}

// ResilientProviderConfig configures the resilience wrapper.
type ResilientProviderConfig struct {
	EnableRetry          bool
	RetryPolicy          *retry.RetryPolicy
	EnableCircuitBreaker bool
	CircuitBreakerConfig *circuitbreaker.Config
}

// DefaultResilientProviderConfig returns the chain's default resilience settings.
func DefaultResilientProviderConfig() *ResilientProviderConfig {
	return &ResilientProviderConfig{
		EnableRetry:          true,
		RetryPolicy:          retry.DefaultRetryPolicy(),
		EnableCircuitBreaker: true,
		CircuitBreakerConfig: circuitbreaker.DefaultConfig(),
	}
}

// NewResilientProvider wraps provider with the given retryer and circuit breaker.
// Either may be nil to disable that layer.
func NewResilientProvider(
	provider Provider,
	retryer retry.Retryer,
	breaker circuitbreaker.CircuitBreaker,
	logger *zap.Logger,
) *ResilientProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResilientProvider{
		provider:       provider,
		retryer:        retryer,
		circuitBreaker: breaker,
		logger:         logger,
	}
}

// Completion implements Provider.Completion with circuit-breaker protection
// wrapping a retry loop: the breaker sees one failure per exhausted retry
// attempt sequence, not per individual attempt.
func (rp *ResilientProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var resp *ChatResponse

	attempt := func() error {
		var err error
		resp, err = rp.provider.Completion(ctx, req)
		return err
	}

	callFn := attempt
	if rp.retryer != nil {
		callFn = func() error {
			return rp.retryer.Do(ctx, attempt)
		}
	}

	var err error
	if rp.circuitBreaker != nil {
		err = rp.circuitBreaker.Call(ctx, callFn)
	} else {
		err = callFn()
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Stream implements Provider.Stream. Streaming responses are not retried or
// cached; only the circuit breaker gates the call.
func (rp *ResilientProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	if rp.circuitBreaker != nil && rp.circuitBreaker.State() == circuitbreaker.StateOpen {
		return nil, circuitbreaker.ErrCircuitOpen
	}
	return rp.provider.Stream(ctx, req)
}

// HealthCheck implements Provider.HealthCheck, delegating to the underlying provider.
func (rp *ResilientProvider) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	return rp.provider.HealthCheck(ctx)
}

// Name implements Provider.Name.
func (rp *ResilientProvider) Name() string {
	return rp.provider.Name()
}

// WrapProviderWithResilience wraps provider with the given retryer and circuit
// breaker (either may be nil).
func WrapProviderWithResilience(
	provider Provider,
	retryer retry.Retryer,
	breaker circuitbreaker.CircuitBreaker,
	logger *zap.Logger,
) Provider {
	return NewResilientProvider(provider, retryer, breaker, logger)
}

// NewResilientProviderSimple builds a ResilientProvider with a freshly
// constructed retryer and circuit breaker from the default config.
func NewResilientProviderSimple(provider Provider, logger *zap.Logger) Provider {
	config := DefaultResilientProviderConfig()
	retryer := retry.NewBackoffRetryer(config.RetryPolicy, logger)
	breaker := circuitbreaker.NewCircuitBreaker(config.CircuitBreakerConfig, logger)
	return NewResilientProvider(provider, retryer, breaker, logger)
}
