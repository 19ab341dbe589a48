package fallback

import (
	"context"
	"fmt"

	"github.com/kbgateway/kbgateway/llm/circuitbreaker"
	"github.com/kbgateway/kbgateway/llm/embedding"
	"go.uber.org/zap"
)

type embeddingEntry struct {
	cfg     ProviderConfig
	backend embedding.Provider
	breaker circuitbreaker.CircuitBreaker
}

// EmbeddingChain is the ordered embedding provider chain. TargetDimensions
// is the dimension the configured vector backend expects; provider outputs
// longer than this are truncated (never padded) and the engine warns.
type EmbeddingChain struct {
	entries          []embeddingEntry
	targetDimensions int
	logger           *zap.Logger
	health           *healthTracker
	breakerCfg       BreakerConfig
}

// EmbeddingResult augments the embedding vector with chain provenance.
type EmbeddingResult struct {
	Vector          []float64
	ProviderID      string
	Attempts        int
	FailedProviders []string
	Truncated       bool
}

// NewEmbeddingChain builds a chain from the given provider configs in order.
// An anthropic-compatible kind is rejected: Anthropic's Messages API has no
// embeddings endpoint, so configuring one here is a configuration error, not
// a runtime degradation.
func NewEmbeddingChain(configs []ProviderConfig, targetDimensions int, breakerCfg BreakerConfig, logger *zap.Logger) (*EmbeddingChain, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("embedding chain requires at least one provider")
	}

	entries := make([]embeddingEntry, 0, len(configs))
	ids := make([]string, 0, len(configs))
	names := make(map[string]string, len(configs))

	for _, cfg := range configs {
		backend, err := buildEmbeddingProvider(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("embedding provider %s: %w", cfg.ID, err)
		}
		breaker := circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
			Threshold:        breakerCfg.ConsecutiveFailureThreshold,
			Timeout:          breakerCfg.CallTimeout,
			ResetTimeout:     breakerCfg.CooldownPeriod,
			HalfOpenMaxCalls: 1,
		}, logger)
		entries = append(entries, embeddingEntry{cfg: cfg, backend: backend, breaker: breaker})
		ids = append(ids, cfg.ID)
		names[cfg.ID] = cfg.Name
	}

	return &EmbeddingChain{
		entries:          entries,
		targetDimensions: targetDimensions,
		logger:           logger,
		health:           newHealthTracker(ids, names),
		breakerCfg:       breakerCfg,
	}, nil
}

// Embed runs the chain's generate algorithm (spec §4.4): iterate providers in
// order, skip any whose breaker is open, call with the provider's timeout,
// truncate over-length vectors to the target dimension, return on first
// success, aggregate on total exhaustion.
func (c *EmbeddingChain) Embed(ctx context.Context, text string) (*EmbeddingResult, error) {
	var attempts []AttemptError
	attemptCount := 0

	for _, entry := range c.entries {
		attemptCount++

		callCtx := ctx
		var cancel context.CancelFunc
		if entry.cfg.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, entry.cfg.Timeout)
		}

		var vec []float64
		err := entry.breaker.Call(callCtx, func() error {
			v, embedErr := entry.backend.EmbedQuery(callCtx, text)
			if embedErr != nil {
				return embedErr
			}
			vec = v
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

		truncated := false
		if c.targetDimensions > 0 && len(vec) > c.targetDimensions {
			vec = vec[:c.targetDimensions]
			truncated = true
			c.logger.Warn("embedding vector truncated to target dimension",
				zap.String("provider", entry.cfg.ID),
				zap.Int("target_dimensions", c.targetDimensions),
			)
		}

		failed := make([]string, 0, len(attempts))
		for _, a := range attempts {
			failed = append(failed, a.ProviderID)
		}

		return &EmbeddingResult{
			Vector:          vec,
			ProviderID:      entry.cfg.ID,
			Attempts:        attemptCount,
			FailedProviders: failed,
			Truncated:       truncated,
		}, nil
	}

	return nil, &ExhaustedError{Chain: "embedding", Attempts: attempts}
}

// Health returns a snapshot of every configured provider's health.
func (c *EmbeddingChain) Health() []ProviderHealth { return c.health.Snapshot() }
