package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/formbricks/feedrank/internal/observability"
	"github.com/formbricks/feedrank/pkg/cache"
)

const (
	cacheName      = "embedding_text"
	defaultTimeout = 30 * time.Second
	probeText      = "feedrank embedding probe"
)

// ErrDimensionMismatch is returned when a backend produces vectors of the wrong length.
var ErrDimensionMismatch = errors.New("embeddings: probe returned unexpected dimension")

// ProviderConfig tunes a Provider.
type ProviderConfig struct {
	Dimensions int
	CacheSize  int
	CacheTTL   time.Duration
	Metrics    observability.EmbeddingMetrics
	Cache      observability.CacheMetrics
}

// Candidate is one backend offered to Negotiate, in preference order.
type Candidate struct {
	Tier    Tier
	Client  Client
	Timeout time.Duration
}

// Provider produces embeddings from the negotiated backend. It never returns errors: any failure,
// including an unavailable backend, yields a nil vector so callers can fall back to neutral scores.
// Returned slices are shared with the cache and must not be modified.
type Provider struct {
	tier       Tier
	client     Client
	timeout    time.Duration
	dimensions int
	cache      *cache.LoaderCache[string, []float32]
	metrics    observability.EmbeddingMetrics
	cacheStats observability.CacheMetrics
}

// NewProvider wraps client as the backend for tier. A nil client forces TierUnavailable.
func NewProvider(tier Tier, client Client, timeout time.Duration, cfg ProviderConfig) *Provider {
	if client == nil {
		tier = TierUnavailable
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	p := &Provider{
		tier:       tier,
		client:     client,
		timeout:    timeout,
		dimensions: cfg.Dimensions,
		metrics:    cfg.Metrics,
		cacheStats: cfg.Cache,
	}

	if cfg.CacheSize > 0 {
		p.cache = cache.NewLoaderCache[string, []float32](cfg.CacheSize, func(s string) string { return s }, cache.Options{
			TTL: cfg.CacheTTL,
			OnEvict: func(string) {
				if p.cacheStats != nil {
					p.cacheStats.RecordEviction(context.Background(), cacheName)
				}
			},
		})
	}

	return p
}

// Negotiate probes candidates in order and returns a Provider bound to the first one that
// answers with a vector of the configured dimension. When none does, the Provider is
// TierUnavailable and every call returns nil.
func Negotiate(ctx context.Context, candidates []Candidate, cfg ProviderConfig) *Provider {
	for _, c := range candidates {
		if c.Client == nil {
			continue
		}

		if err := probe(ctx, c, cfg.Dimensions); err != nil {
			slog.Warn("embedding tier unavailable", "tier", c.Tier.String(), "error", err)

			continue
		}

		slog.Info("embedding tier selected", "tier", c.Tier.String(), "dimensions", cfg.Dimensions)

		return NewProvider(c.Tier, c.Client, c.Timeout, cfg)
	}

	slog.Warn("no embedding backend available; semantic relevance will be neutral")

	return NewProvider(TierUnavailable, nil, 0, cfg)
}

func probe(ctx context.Context, c Candidate, dims int) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	vec, err := c.Client.CreateEmbedding(ctx, probeText)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}

	if dims > 0 && len(vec) != dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), dims)
	}

	return nil
}

// Tier returns the negotiated backend tier.
func (p *Provider) Tier() Tier { return p.tier }

// Available reports whether any backend is serving embeddings.
func (p *Provider) Available() bool { return p.tier != TierUnavailable }

// Dimensions returns the configured vector length.
func (p *Provider) Dimensions() int { return p.dimensions }

// Embed returns the vector for text, or nil when text is blank or the backend fails.
func (p *Provider) Embed(ctx context.Context, text string) []float32 {
	text = strings.TrimSpace(text)
	if text == "" || !p.Available() {
		return nil
	}

	if p.cache == nil {
		vec, _ := p.embedOne(ctx, text)

		return vec
	}

	vec, hit, err := p.cache.Get(ctx, text, p.embedOne)
	p.recordCache(ctx, hit)

	if err != nil {
		slog.DebugContext(ctx, "embedding failed", "tier", p.tier.String(), "error", err)

		return nil
	}

	return vec
}

// EmbedBatch returns one entry per input. Blank inputs and failures are nil at their position.
// Uncached texts are sent to the backend in a single request.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	if !p.Available() {
		return out
	}

	var (
		pending   []string
		positions = map[string][]int{}
	)

	for i, raw := range texts {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}

		if p.cache != nil {
			if vec, ok := p.cache.Peek(text); ok {
				p.recordCache(ctx, true)

				out[i] = vec

				continue
			}

			p.recordCache(ctx, false)
		}

		if _, seen := positions[text]; !seen {
			pending = append(pending, text)
		}

		positions[text] = append(positions[text], i)
	}

	if len(pending) == 0 {
		return out
	}

	vecs, err := p.embedMany(ctx, pending)
	if err != nil {
		slog.DebugContext(ctx, "batch embedding failed", "tier", p.tier.String(), "count", len(pending), "error", err)

		return out
	}

	for i, text := range pending {
		if p.cache != nil {
			p.cache.Put(text, vecs[i])
		}

		for _, pos := range positions[text] {
			out[pos] = vecs[i]
		}
	}

	return out
}

func (p *Provider) embedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.embedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vecs[0], nil
}

func (p *Provider) embedMany(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	vecs, err := p.client.CreateEmbeddings(ctx, texts)

	if err == nil && len(vecs) != len(texts) {
		err = fmt.Errorf("embeddings: got %d vectors for %d inputs", len(vecs), len(texts))
	}

	if err == nil && p.dimensions > 0 {
		for _, v := range vecs {
			if len(v) != p.dimensions {
				err = fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), p.dimensions)

				break
			}
		}
	}

	if p.metrics != nil {
		p.metrics.RecordEmbedRequest(ctx, p.tier.String(), err == nil, time.Since(start))
	}

	if err != nil {
		return nil, err
	}

	return vecs, nil
}

func (p *Provider) recordCache(ctx context.Context, hit bool) {
	if p.cacheStats == nil {
		return
	}

	if hit {
		p.cacheStats.RecordHit(ctx, cacheName)
	} else {
		p.cacheStats.RecordMiss(ctx, cacheName)
	}
}
