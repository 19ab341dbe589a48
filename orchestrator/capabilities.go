package orchestrator

import (
	"context"

	"github.com/kbgateway/kbgateway/fallback"
	"github.com/kbgateway/kbgateway/gateway"
	"github.com/kbgateway/kbgateway/llm"
)

// EmbeddingGenerator is the capability the Embedding Fallback Chain
// provides. The orchestrator depends on this interface, never on
// *fallback.EmbeddingChain directly, so a test double or an alternate
// chain implementation can stand in without changing the orchestrator.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) (*fallback.EmbeddingResult, error)
}

// Synthesizer is the capability the Synthesis Fallback Chain provides.
// It is optional: a nil Synthesizer means synthesis is not configured and
// queries always return raw evidence.
type Synthesizer interface {
	Synthesize(ctx context.Context, req *llm.ChatRequest) (*fallback.SynthesisResult, error)
}

// StreamingSynthesizer is implemented by Synthesizers that also support
// token-by-token streaming (the Provider Fallback Engine's
// *fallback.SynthesisChain does). It is checked with a type assertion
// rather than folded into Synthesizer so that test doubles implementing
// only Synthesize still satisfy the orchestrator's dependency.
type StreamingSynthesizer interface {
	Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, string, error)
}

// SemanticBackend is the vector-store capability (spec §9:
// "SemanticSearcher"). Probe and Search are issued concurrently during
// step 4-5 of the orchestration algorithm; Probe's result decides the
// degradation narrative, Search's result (or lack of it) decides content.
type SemanticBackend interface {
	Probe(ctx context.Context) error
	Search(ctx context.Context, vector []float64, project string) (gateway.SemanticResult, error)
}

// StructuralBackend is the graph-store capability (spec §9:
// "StructuralSearcher").
type StructuralBackend interface {
	Probe(ctx context.Context) error
	Search(ctx context.Context, query string, project string) (gateway.StructuralResult, error)
}
