package fallback

import (
	"fmt"

	"github.com/kbgateway/kbgateway/llm"
	"github.com/kbgateway/kbgateway/llm/embedding"
	"github.com/kbgateway/kbgateway/llm/providers/anthropiccompat"
	"github.com/kbgateway/kbgateway/llm/providers/local"
	"github.com/kbgateway/kbgateway/llm/providers/openaicompat"
	"go.uber.org/zap"
)

func buildEmbeddingProvider(cfg ProviderConfig, logger *zap.Logger) (embedding.Provider, error) {
	switch cfg.Kind {
	case KindOpenAICompatible:
		return embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
		}), nil
	case KindLocal:
		return embedding.NewLocalProvider(embedding.LocalConfig{
			Name:       cfg.Name,
			Dimensions: cfg.Dimensions,
		}), nil
	case KindAnthropicCompatible:
		return nil, fmt.Errorf("anthropic-compatible has no embeddings endpoint; use openai-compatible or local for embedding chain entries")
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}

func buildSynthesisProvider(cfg ProviderConfig, logger *zap.Logger) (llm.Provider, error) {
	switch cfg.Kind {
	case KindOpenAICompatible:
		return openaicompat.New(openaicompat.Config{
			ProviderName: cfg.ID,
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
		}, logger), nil
	case KindAnthropicCompatible:
		return anthropiccompat.New(anthropiccompat.Config{
			ProviderName: cfg.ID,
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
		}, logger), nil
	case KindLocal:
		return local.New(local.Config{ProviderName: cfg.ID}), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}
