package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric collectors. When metrics are disabled, the whole struct is nil.
// Components accept the narrow interface they need and treat a nil interface as "no metrics".
type Metrics struct {
	API        APIMetrics
	Ranking    RankingMetrics
	Embeddings EmbeddingMetrics
	Connectors ConnectorMetrics
	Cache      CacheMetrics
}

// NewMetrics creates every metric group from the given meter.
// Returns (nil, nil) when meter is nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	api, err := NewAPIMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("api metrics: %w", err)
	}

	ranking, err := NewRankingMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("ranking metrics: %w", err)
	}

	embeddings, err := NewEmbeddingMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("embedding metrics: %w", err)
	}

	connectors, err := NewConnectorMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("connector metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	return &Metrics{
		API:        api,
		Ranking:    ranking,
		Embeddings: embeddings,
		Connectors: connectors,
		Cache:      cache,
	}, nil
}
