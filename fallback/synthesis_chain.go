package fallback

import (
	"context"
	"fmt"

	"github.com/kbgateway/kbgateway/llm"
	"github.com/kbgateway/kbgateway/llm/circuitbreaker"
	"go.uber.org/zap"
)

type synthesisEntry struct {
	cfg     ProviderConfig
	backend llm.Provider
	breaker circuitbreaker.CircuitBreaker
}

// SynthesisChain is the ordered synthesis provider chain.
type SynthesisChain struct {
	entries    []synthesisEntry
	logger     *zap.Logger
	health     *healthTracker
	breakerCfg BreakerConfig
}

// SynthesisResult augments the chat response with chain provenance.
type SynthesisResult struct {
	Response        *llm.ChatResponse
	ProviderID      string
	Attempts        int
	FailedProviders []string
}

// NewSynthesisChain builds a chain from the given provider configs in order.
func NewSynthesisChain(configs []ProviderConfig, breakerCfg BreakerConfig, logger *zap.Logger) (*SynthesisChain, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("synthesis chain requires at least one provider")
	}

	entries := make([]synthesisEntry, 0, len(configs))
	ids := make([]string, 0, len(configs))
	names := make(map[string]string, len(configs))

	for _, cfg := range configs {
		backend, err := buildSynthesisProvider(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("synthesis provider %s: %w", cfg.ID, err)
		}
		breaker := circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
			Threshold:        breakerCfg.ConsecutiveFailureThreshold,
			Timeout:          breakerCfg.CallTimeout,
			ResetTimeout:     breakerCfg.CooldownPeriod,
			HalfOpenMaxCalls: 1,
		}, logger)
		entries = append(entries, synthesisEntry{cfg: cfg, backend: backend, breaker: breaker})
		ids = append(ids, cfg.ID)
		names[cfg.ID] = cfg.Name
	}

	return &SynthesisChain{
		entries:    entries,
		logger:     logger,
		health:     newHealthTracker(ids, names),
		breakerCfg: breakerCfg,
	}, nil
}

// Synthesize runs the chain's generate algorithm: iterate providers in
// order, skip any whose breaker is open, call with the provider's timeout,
// return on first success, aggregate on total exhaustion.
func (c *SynthesisChain) Synthesize(ctx context.Context, req *llm.ChatRequest) (*SynthesisResult, error) {
	var attempts []AttemptError
	attemptCount := 0

	for _, entry := range c.entries {
		attemptCount++

		callCtx := ctx
		var cancel context.CancelFunc
		if entry.cfg.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, entry.cfg.Timeout)
		}

		var resp *llm.ChatResponse
		err := entry.breaker.Call(callCtx, func() error {
			r, callErr := entry.backend.Completion(callCtx, req)
			if callErr != nil {
				return callErr
			}
			resp = r
			return nil
		})
		if cancel != nil {
			cancel()
		}

		if err != nil {
			if err == circuitbreaker.ErrCircuitOpen {
				attempts = append(attempts, AttemptError{ProviderID: entry.cfg.ID, Message: "circuit open"})
				continue
			}
			c.health.recordFailure(entry.cfg.ID, err, c.breakerCfg.ConsecutiveFailureThreshold)
			attempts = append(attempts, AttemptError{ProviderID: entry.cfg.ID, Message: err.Error()})
			continue
		}

		c.health.recordSuccess(entry.cfg.ID)

		failed := make([]string, 0, len(attempts))
		for _, a := range attempts {
			failed = append(failed, a.ProviderID)
		}

		return &SynthesisResult{
			Response:        resp,
			ProviderID:      entry.cfg.ID,
			Attempts:        attemptCount,
			FailedProviders: failed,
		}, nil
	}

	return nil, &ExhaustedError{Chain: "synthesis", Attempts: attempts}
}

// Stream runs the same ordered-chain walk as Synthesize but for the
// supplemental token-by-token /query/stream endpoint: it establishes a
// streaming call with the first provider whose breaker is closed and
// returns its channel directly. Failures to establish a stream fall
// through to the next provider exactly like Synthesize; once a stream is
// open, mid-stream errors surface as a StreamChunk.Err on the channel
// rather than re-entering the fallback walk (the caller has already
// started forwarding chunks to its own client by then).
func (c *SynthesisChain) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, string, error) {
	var attempts []AttemptError

	for _, entry := range c.entries {
		// Unlike Synthesize, no per-provider timeout wraps the call: a
		// stream's lifetime is the caller's context (cancelled when its
		// client disconnects), not a fixed ceiling.
		var ch <-chan llm.StreamChunk
		err := entry.breaker.Call(ctx, func() error {
			s, callErr := entry.backend.Stream(ctx, req)
			if callErr != nil {
				return callErr
			}
			ch = s
			return nil
		})
		if err != nil {
			if err == circuitbreaker.ErrCircuitOpen {
				attempts = append(attempts, AttemptError{ProviderID: entry.cfg.ID, Message: "circuit open"})
				continue
			}
			c.health.recordFailure(entry.cfg.ID, err, c.breakerCfg.ConsecutiveFailureThreshold)
			attempts = append(attempts, AttemptError{ProviderID: entry.cfg.ID, Message: err.Error()})
			continue
		}

		c.health.recordSuccess(entry.cfg.ID)
		return ch, entry.cfg.ID, nil
	}

	return nil, "", &ExhaustedError{Chain: "synthesis", Attempts: attempts}
}

// Health returns a snapshot of every configured provider's health.
func (c *SynthesisChain) Health() []ProviderHealth { return c.health.Snapshot() }
