// Package local implements the "local" synthesis provider kind: a
// dependency-free responder used as a chain's last-resort entry, or in
// development environments where no real synthesis backend is configured.
package local

import (
	"context"
	"strings"
	"time"

	"github.com/kbgateway/kbgateway/llm"
)

// Config configures the local provider.
type Config struct {
	ProviderName string
}

// Provider answers by returning the request's last user turn (the evidence)
// unsummarized behind a short notice, instead of calling out to a model. It
// is always healthy.
type Provider struct {
	cfg Config
}

// New creates a local provider.
func New(cfg Config) *Provider {
	if cfg.ProviderName == "" {
		cfg.ProviderName = "local"
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string { return p.cfg.ProviderName }

// Completion implements llm.Provider by echoing the last user turn prefixed
// with a notice that no model produced this text.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == llm.RoleUser {
			lastUser = req.Messages[i].Content
			break
		}
	}
	var b strings.Builder
	b.WriteString("[local] no synthesis provider was available; returning the evidence below unsummarized.\n\n")
	b.WriteString(strings.TrimSpace(lastUser))

	return &llm.ChatResponse{
		Provider: p.Name(),
		Model:    "local-echo",
		Choices: []llm.ChatChoice{{
			FinishReason: "stop",
			Message:      llm.Message{Role: llm.RoleAssistant, Content: b.String()},
		}},
		CreatedAt: time.Now(),
	}, nil
}

// Stream implements llm.Provider by emitting the completion as a single chunk.
func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	resp, err := p.Completion(ctx, req)
	if err != nil {
		return nil, err
	}
	ch := make(chan llm.StreamChunk, 1)
	ch <- llm.StreamChunk{
		ID:           resp.ID,
		Provider:     p.Name(),
		Model:        resp.Model,
		Delta:        resp.Choices[0].Message,
		FinishReason: "stop",
	}
	close(ch)
	return ch, nil
}

// HealthCheck implements llm.Provider; the local provider has no external
// dependency and is always healthy.
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}
