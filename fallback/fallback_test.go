package fallback

import (
	"context"
	"testing"
	"time"

	"github.com/kbgateway/kbgateway/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// buildEmbeddingProvider / buildSynthesisProvider
// ---------------------------------------------------------------------------

func TestBuildEmbeddingProviderRejectsAnthropic(t *testing.T) {
	_, err := buildEmbeddingProvider(ProviderConfig{ID: "p1", Kind: KindAnthropicCompatible}, nil)
	require.Error(t, err)
}

func TestBuildEmbeddingProviderLocal(t *testing.T) {
	p, err := buildEmbeddingProvider(ProviderConfig{ID: "p1", Kind: KindLocal, Dimensions: 16}, nil)
	require.NoError(t, err)
	assert.Equal(t, 16, p.Dimensions())
}

func TestBuildSynthesisProviderLocal(t *testing.T) {
	p, err := buildSynthesisProvider(ProviderConfig{ID: "p1", Kind: KindLocal}, nil)
	require.NoError(t, err)
	assert.Equal(t, "p1", p.Name())
}

func TestBuildSynthesisProviderUnknownKind(t *testing.T) {
	_, err := buildSynthesisProvider(ProviderConfig{ID: "p1", Kind: "bogus"}, nil)
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// EmbeddingChain
// ---------------------------------------------------------------------------

func TestEmbeddingChainTruncatesOverLongVector(t *testing.T) {
	chain, err := NewEmbeddingChain([]ProviderConfig{
		{ID: "local-1", Kind: KindLocal, Dimensions: 32},
	}, 8, DefaultBreakerConfig(), nil)
	require.NoError(t, err)

	res, err := chain.Embed(context.Background(), "find the parser")
	require.NoError(t, err)
	assert.Len(t, res.Vector, 8)
	assert.True(t, res.Truncated)
	assert.Equal(t, "local-1", res.ProviderID)
	assert.Equal(t, 1, res.Attempts)
}

func TestEmbeddingChainFallsThroughToSecondProvider(t *testing.T) {
	chain, err := NewEmbeddingChain([]ProviderConfig{
		{ID: "bad", Kind: KindOpenAICompatible, BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond},
		{ID: "good", Kind: KindLocal, Dimensions: 8},
	}, 8, DefaultBreakerConfig(), nil)
	require.NoError(t, err)

	res, err := chain.Embed(context.Background(), "find the parser")
	require.NoError(t, err)
	assert.Equal(t, "good", res.ProviderID)
	assert.Equal(t, 2, res.Attempts)
	assert.Contains(t, res.FailedProviders, "bad")

	health := chain.Health()
	var badHealth, goodHealth *ProviderHealth
	for i := range health {
		switch health[i].ProviderID {
		case "bad":
			badHealth = &health[i]
		case "good":
			goodHealth = &health[i]
		}
	}
	require.NotNil(t, badHealth)
	require.NotNil(t, goodHealth)
	assert.Equal(t, 1, badHealth.ConsecutiveFailed)
	assert.True(t, goodHealth.Available)
}

func TestEmbeddingChainExhaustedAggregatesErrors(t *testing.T) {
	chain, err := NewEmbeddingChain([]ProviderConfig{
		{ID: "bad-1", Kind: KindOpenAICompatible, BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond},
		{ID: "bad-2", Kind: KindOpenAICompatible, BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond},
	}, 8, DefaultBreakerConfig(), nil)
	require.NoError(t, err)

	_, err = chain.Embed(context.Background(), "find the parser")
	require.Error(t, err)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "embedding", exhausted.Chain)
	assert.Len(t, exhausted.Attempts, 2)
}

func TestNewEmbeddingChainRequiresAtLeastOneProvider(t *testing.T) {
	_, err := NewEmbeddingChain(nil, 8, DefaultBreakerConfig(), nil)
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// SynthesisChain
// ---------------------------------------------------------------------------

func TestSynthesisChainLocalProvider(t *testing.T) {
	chain, err := NewSynthesisChain([]ProviderConfig{
		{ID: "local-1", Kind: KindLocal},
	}, DefaultBreakerConfig(), nil)
	require.NoError(t, err)

	res, err := chain.Synthesize(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "what does the parser do?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "local-1", res.ProviderID)
	require.Len(t, res.Response.Choices, 1)
	assert.Contains(t, res.Response.Choices[0].Message.Content, "what does the parser do?")
}

func TestSynthesisChainBreakerOpensAfterThreshold(t *testing.T) {
	breakerCfg := BreakerConfig{ConsecutiveFailureThreshold: 1, CooldownPeriod: time.Hour, CallTimeout: 200 * time.Millisecond}
	chain, err := NewSynthesisChain([]ProviderConfig{
		{ID: "bad", Kind: KindOpenAICompatible, BaseURL: "http://127.0.0.1:1", Timeout: 50 * time.Millisecond},
		{ID: "good", Kind: KindLocal},
	}, breakerCfg, nil)
	require.NoError(t, err)

	req := &llm.ChatRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "ping"}}}

	_, err = chain.Synthesize(context.Background(), req)
	require.NoError(t, err)

	res, err := chain.Synthesize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "good", res.ProviderID)
	assert.Contains(t, res.FailedProviders, "bad")
}

func TestSynthesisChainExhausted(t *testing.T) {
	chain, err := NewSynthesisChain([]ProviderConfig{
		{ID: "bad", Kind: KindOpenAICompatible, BaseURL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond},
	}, DefaultBreakerConfig(), nil)
	require.NoError(t, err)

	_, err = chain.Synthesize(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "ping"}},
	})
	require.Error(t, err)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "synthesis", exhausted.Chain)
}
