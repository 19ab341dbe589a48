package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// LocalConfig configures the local embedding provider.
type LocalConfig struct {
	Name       string
	Dimensions int
}

// DefaultLocalConfig returns the local embedding provider's default settings.
func DefaultLocalConfig() LocalConfig {
	return LocalConfig{Name: "local-embedding", Dimensions: 256}
}

// LocalProvider generates deterministic embeddings from a SHA-256 hash of the
// input text, expanded to the configured dimension. It never calls a network
// and is always healthy; it exists as the chain's last-resort entry and for
// offline development where no real embedding provider is configured.
type LocalProvider struct {
	cfg LocalConfig
}

// NewLocalProvider creates a local embedding provider.
func NewLocalProvider(cfg LocalConfig) *LocalProvider {
	if cfg.Name == "" {
		cfg.Name = "local-embedding"
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 256
	}
	return &LocalProvider{cfg: cfg}
}

func (p *LocalProvider) Name() string      { return p.cfg.Name }
func (p *LocalProvider) Dimensions() int   { return p.cfg.Dimensions }
func (p *LocalProvider) MaxBatchSize() int { return 1000 }

func hashVector(text string, dims int) []float64 {
	vec := make([]float64, dims)
	block := sha256.Sum256([]byte(text))
	for i := 0; i < dims; i++ {
		// Re-hash the seed with the index folded in once the 32-byte block
		// is exhausted, so dimensions beyond 8 remain well distributed.
		if i > 0 && i%8 == 0 {
			seed := append(block[:], byte(i/8))
			block = sha256.Sum256(seed)
		}
		offset := (i % 8) * 4
		bits := binary.BigEndian.Uint32(block[offset : offset+4])
		vec[i] = (float64(bits)/float64(^uint32(0)))*2 - 1
	}
	return vec
}

// Embed implements embedding.Provider.
func (p *LocalProvider) Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	dims := req.Dimensions
	if dims <= 0 {
		dims = p.cfg.Dimensions
	}
	embeddings := make([]EmbeddingData, len(req.Input))
	for i, text := range req.Input {
		embeddings[i] = EmbeddingData{Index: i, Embedding: hashVector(text, dims), Object: "embedding"}
	}
	return &EmbeddingResponse{
		Provider:   p.Name(),
		Model:      "local-hash",
		Embeddings: embeddings,
		CreatedAt:  time.Now(),
	}, nil
}

// EmbedQuery implements embedding.Provider.
func (p *LocalProvider) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	resp, err := p.Embed(ctx, &EmbeddingRequest{Input: []string{query}})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0].Embedding, nil
}

// EmbedDocuments implements embedding.Provider.
func (p *LocalProvider) EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error) {
	resp, err := p.Embed(ctx, &EmbeddingRequest{Input: documents})
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Embedding
	}
	return out, nil
}

// HealthCheck implements a lightweight always-healthy check; local generation
// has no external dependency that could be down.
func (p *LocalProvider) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	return &HealthStatus{Healthy: true}, nil
}
