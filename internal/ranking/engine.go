// Package ranking scores and orders content items for a user from five weighted factors:
// semantic relevance, sender importance, urgency, recency and recent feedback.
package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/formbricks/feedrank/internal/models"
	"github.com/formbricks/feedrank/internal/observability"
	"github.com/formbricks/feedrank/pkg/embeddings"
)

// DefaultLimit is used when Rank is called with limit <= 0.
const DefaultLimit = 50

// ProfileStore loads a user's profile, creating the default one on first use.
type ProfileStore interface {
	GetOrCreate(ctx context.Context, userID string) (*models.UserPreferenceProfile, error)
}

// FeedbackReader returns the feedback types a user submitted since a point in time.
type FeedbackReader interface {
	FeedbackTypesSince(ctx context.Context, userID string, since time.Time) ([]string, error)
}

// Embedder produces text embeddings. Failures are reported as nil entries.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) [][]float32
}

// Engine ranks items. It is safe for concurrent use.
type Engine struct {
	profiles     ProfileStore
	feedback     FeedbackReader
	embedder     Embedder
	metrics      observability.RankingMetrics
	now          func() time.Time
	defaultLimit int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, for deterministic scoring.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics records ranking runs.
func WithMetrics(m observability.RankingMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithDefaultLimit overrides DefaultLimit.
func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(profiles ProfileStore, feedback FeedbackReader, embedder Embedder, opts ...Option) *Engine {
	e := &Engine{
		profiles:     profiles,
		feedback:     feedback,
		embedder:     embedder,
		now:          time.Now,
		defaultLimit: DefaultLimit,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Rank scores items for userID and returns them best first, truncated to limit.
// Ranking never fails: when the profile or feedback history cannot be read every item gets the
// neutral score with an empty breakdown and Degraded set, in input order.
func (e *Engine) Rank(ctx context.Context, items []*models.ContentItem, userID string, limit int) []models.RankedItem {
	if limit <= 0 {
		limit = e.defaultLimit
	}

	start := time.Now()

	ranked, err := e.rank(ctx, items, userID)
	if err != nil {
		slog.ErrorContext(ctx, "ranking degraded", "user_id", userID, "items", len(items), "error", err)

		ranked = degraded(items)
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if e.metrics != nil {
		e.metrics.RecordRanking(ctx, len(items), err != nil, time.Since(start))
	}

	return ranked
}

func (e *Engine) rank(ctx context.Context, items []*models.ContentItem, userID string) ([]models.RankedItem, error) {
	profile, err := e.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	now := e.now()

	recent, err := e.feedback.FeedbackTypesSince(ctx, userID, now.Add(-feedbackWindow))
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}

	weights := EffectiveWeights(profile.RankingWeights)
	feedbackResult := userFeedback(recent)
	centroid, itemVecs := e.embed(ctx, profile.ImportantKeywords, items)

	ranked := make([]models.RankedItem, len(items))

	for i, item := range items {
		breakdown := map[string]float64{
			models.FactorSemanticRelevance: neutralScore,
			models.FactorSenderImportance:  senderImportance(item, profile.ImportantContacts).value(),
			models.FactorUrgency:           urgency(item, now).value(),
			models.FactorRecency:           recency(item.Date, now).value(),
			models.FactorUserFeedback:      feedbackResult.value(),
		}

		if centroid != nil {
			breakdown[models.FactorSemanticRelevance] = semanticRelevance(centroid, itemVecs[i]).value()
		}

		ranked[i] = models.RankedItem{
			Item:       item,
			FinalScore: finalScore(breakdown, weights),
			Breakdown:  breakdown,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].FinalScore > ranked[j].FinalScore })

	return ranked, nil
}

// embed returns the interest centroid and per-item vectors. With no keywords, or when no keyword
// could be embedded, the centroid is nil and items are not embedded at all.
func (e *Engine) embed(ctx context.Context, keywords []string, items []*models.ContentItem) ([]float32, [][]float32) {
	if len(keywords) == 0 || e.embedder == nil {
		return nil, nil
	}

	centroid := embeddings.Centroid(e.embedder.EmbedBatch(ctx, keywords))
	if centroid == nil {
		return nil, nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.EmbeddingText()
	}

	return centroid, e.embedder.EmbedBatch(ctx, texts)
}

// finalScore sums factor × weight in the canonical factor order, so results are reproducible
// bit for bit.
func finalScore(breakdown, weights map[string]float64) float64 {
	var total float64
	for _, name := range models.RankingFactors() {
		total += breakdown[name] * weights[name]
	}

	return total
}

func degraded(items []*models.ContentItem) []models.RankedItem {
	out := make([]models.RankedItem, len(items))
	for i, item := range items {
		out[i] = models.RankedItem{
			Item:       item,
			FinalScore: neutralScore,
			Breakdown:  map[string]float64{},
			Degraded:   true,
		}
	}

	return out
}
