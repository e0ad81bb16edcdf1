package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheMetrics records embedding cache lookups and evictions, labelled by cache name.
type CacheMetrics interface {
	RecordHit(ctx context.Context, cacheName string)
	RecordMiss(ctx context.Context, cacheName string)
	RecordEviction(ctx context.Context, cacheName string)
}

type cacheMetrics struct {
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	evictions metric.Int64Counter
}

// NewCacheMetrics creates CacheMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewCacheMetrics(meter metric.Meter) (CacheMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	hits, err := meter.Int64Counter(
		MetricNameCacheHits,
		metric.WithDescription("Embedding lookups served from the in-process cache. Label cache: embedding_text, keyword_vector."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cache hits counter: %w", err)
	}

	misses, err := meter.Int64Counter(
		MetricNameCacheMisses,
		metric.WithDescription("Embedding lookups that called the provider. Hit ratio = rate(hits) / (rate(hits) + rate(misses))."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cache misses counter: %w", err)
	}

	evictions, err := meter.Int64Counter(
		MetricNameCacheEvictions,
		metric.WithDescription("Entries removed from the cache by size pressure or TTL expiry."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cache evictions counter: %w", err)
	}

	return &cacheMetrics{hits: hits, misses: misses, evictions: evictions}, nil
}

func cacheAttr(name string) metric.AddOption {
	return metric.WithAttributes(attribute.String("cache", NormalizeCacheName(name)))
}

func (c *cacheMetrics) RecordHit(ctx context.Context, cacheName string) {
	c.hits.Add(ctx, 1, cacheAttr(cacheName))
}

func (c *cacheMetrics) RecordMiss(ctx context.Context, cacheName string) {
	c.misses.Add(ctx, 1, cacheAttr(cacheName))
}

func (c *cacheMetrics) RecordEviction(ctx context.Context, cacheName string) {
	c.evictions.Add(ctx, 1, cacheAttr(cacheName))
}
