package embeddings

import (
	"context"
	"fmt"

	"github.com/formbricks/feedrank/internal/config"
	"github.com/formbricks/feedrank/internal/googleai"
	"github.com/formbricks/feedrank/internal/ollama"
	"github.com/formbricks/feedrank/internal/openai"
)

// CandidatesFromConfig lists the backends allowed by cfg in preference order: the local model
// first, then the configured remote provider when an API key is present.
func CandidatesFromConfig(ctx context.Context, cfg *config.Config) ([]Candidate, error) {
	var candidates []Candidate

	if cfg.EmbeddingLocalURL != "" {
		candidates = append(candidates, Candidate{
			Tier:    TierLocal,
			Client:  ollama.NewClient(cfg.EmbeddingLocalURL, cfg.EmbeddingLocalModel, cfg.EmbeddingDimensions),
			Timeout: cfg.EmbeddingLocalTimeout,
		})
	}

	if cfg.EmbeddingRemoteAPIKey == "" {
		return candidates, nil
	}

	var remote Client

	switch cfg.EmbeddingRemoteProvider {
	case config.EmbeddingProviderOpenAI:
		remote = openai.NewClient(cfg.EmbeddingRemoteAPIKey,
			openai.WithModel(cfg.EmbeddingRemoteModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
		)
	case config.EmbeddingProviderGoogle:
		c, err := googleai.NewClient(ctx, cfg.EmbeddingRemoteAPIKey,
			googleai.WithModel(cfg.EmbeddingRemoteModel),
			googleai.WithDimensions(cfg.EmbeddingDimensions),
		)
		if err != nil {
			return nil, fmt.Errorf("google embedding client: %w", err)
		}

		remote = c
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingRemoteProvider)
	}

	return append(candidates, Candidate{
		Tier:    TierRemote,
		Client:  remote,
		Timeout: cfg.EmbeddingRemoteTimeout,
	}), nil
}

// ProviderConfigFromConfig copies the provider tuning out of cfg.
func ProviderConfigFromConfig(cfg *config.Config) ProviderConfig {
	return ProviderConfig{
		Dimensions: cfg.EmbeddingDimensions,
		CacheSize:  cfg.EmbeddingCacheSize,
		CacheTTL:   cfg.EmbeddingCacheTTL,
	}
}
