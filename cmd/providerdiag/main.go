// providerdiag exercises every configured embedding and synthesis provider
// once and prints a success/failure table — the deploy-time check named in
// spec §6. Exit code is 0 iff at least one synthesis and at least one
// embedding provider succeed.
//
// Usage:
//
//	providerdiag                       # use config discovery (env/defaults)
//	providerdiag --config config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/config"
	"github.com/kbgateway/kbgateway/fallback"
	"github.com/kbgateway/kbgateway/llm"
	"github.com/kbgateway/kbgateway/types"
)

const probeTimeout = 15 * time.Second

type result struct {
	kind   string // "embedding" or "synthesis"
	id     string
	name   string
	ok     bool
	detail string
}

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := zap.NewNop()

	results := make([]result, 0, len(cfg.Embedding.Providers)+len(cfg.Synthesis.Providers))
	embeddingOK := 0
	for _, p := range cfg.Embedding.Providers {
		r := probeEmbeddingProvider(p, cfg.Embedding.Dimensions, logger)
		if r.ok {
			embeddingOK++
		}
		results = append(results, r)
	}

	synthesisOK := 0
	for _, p := range cfg.Synthesis.Providers {
		r := probeSynthesisProvider(p, logger)
		if r.ok {
			synthesisOK++
		}
		results = append(results, r)
	}

	printTable(results)
	fmt.Printf("\nembedding: %d/%d providers ok; synthesis: %d/%d providers ok\n",
		embeddingOK, len(cfg.Embedding.Providers), synthesisOK, len(cfg.Synthesis.Providers))

	if embeddingOK >= 1 && synthesisOK >= 1 {
		os.Exit(0)
	}
	os.Exit(1)
}

func probeEmbeddingProvider(p config.ProviderEntryConfig, targetDimensions int, logger *zap.Logger) result {
	r := result{kind: "embedding", id: p.ID, name: p.Name}
	chain, err := fallback.NewEmbeddingChain([]fallback.ProviderConfig{toProviderConfig(p)}, targetDimensions, fallback.DefaultBreakerConfig(), logger)
	if err != nil {
		r.detail = err.Error()
		return r
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	res, err := chain.Embed(ctx, "providerdiag connectivity probe")
	if err != nil {
		r.detail = err.Error()
		return r
	}
	r.ok = true
	r.detail = fmt.Sprintf("%d dims", len(res.Vector))
	return r
}

func probeSynthesisProvider(p config.ProviderEntryConfig, logger *zap.Logger) result {
	r := result{kind: "synthesis", id: p.ID, name: p.Name}
	chain, err := fallback.NewSynthesisChain([]fallback.ProviderConfig{toProviderConfig(p)}, fallback.DefaultBreakerConfig(), logger)
	if err != nil {
		r.detail = err.Error()
		return r
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	req := &llm.ChatRequest{
		Model: p.Model,
		Messages: []llm.Message{
			types.NewUserMessage("Reply with the single word: ok"),
		},
		MaxTokens: 8,
		Timeout:   probeTimeout,
	}
	_, err = chain.Synthesize(ctx, req)
	if err != nil {
		r.detail = err.Error()
		return r
	}
	r.ok = true
	r.detail = "responded"
	return r
}

func toProviderConfig(e config.ProviderEntryConfig) fallback.ProviderConfig {
	return fallback.ProviderConfig{
		ID:      e.ID,
		Name:    e.Name,
		Kind:    fallback.Kind(e.Kind),
		BaseURL: e.BaseURL,
		Model:   e.Model,
		APIKey:  e.APIKey,
		Timeout: e.Timeout,
	}
}

func printTable(results []result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tID\tNAME\tSTATUS\tDETAIL")
	fmt.Fprintln(w, "----\t--\t----\t------\t------")
	for _, r := range results {
		status := "FAIL"
		if r.ok {
			status = "OK"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.kind, r.id, r.name, status, r.detail)
	}
	w.Flush()
}
