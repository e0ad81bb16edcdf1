package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/formbricks/feedrank/internal/models"
	"github.com/formbricks/feedrank/internal/observability"
)

// Rerank looks at items dated within this window.
const rerankWindow = 24 * time.Hour

const (
	notifiedCacheSize = 10000
	notifiedCacheTTL  = 48 * time.Hour
	notifyBodyLen     = 100
)

// ContentItemsLister loads a user's items.
type ContentItemsLister interface {
	List(ctx context.Context, userID string, filters *models.ListContentItemsFilters) ([]*models.ContentItem, error)
}

// Ranker orders items for a user.
type Ranker interface {
	Rank(ctx context.Context, items []*models.ContentItem, userID string, limit int) []models.RankedItem
}

// RankingService serves the ranked feed and runs background reranks.
type RankingService struct {
	items        ContentItemsLister
	ranker       Ranker
	notifier     Notifier
	threshold    float64
	defaultLimit int
	notified     *expirable.LRU[string, struct{}]
	metrics      observability.RankingMetrics
	logger       *slog.Logger
	now          func() time.Time
}

// RankingServiceParams configures RankingService. Notifier, Metrics and Logger may be nil.
type RankingServiceParams struct {
	Items        ContentItemsLister
	Ranker       Ranker
	Notifier     Notifier
	Threshold    float64
	DefaultLimit int
	Metrics      observability.RankingMetrics
	Logger       *slog.Logger
	Now          func() time.Time
}

// NewRankingService creates a RankingService.
func NewRankingService(p RankingServiceParams) *RankingService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := p.Now
	if now == nil {
		now = time.Now
	}

	limit := p.DefaultLimit
	if limit <= 0 {
		limit = 50
	}

	return &RankingService{
		items:        p.Items,
		ranker:       p.Ranker,
		notifier:     p.Notifier,
		threshold:    p.Threshold,
		defaultLimit: limit,
		notified:     expirable.NewLRU[string, struct{}](notifiedCacheSize, nil, notifiedCacheTTL),
		metrics:      p.Metrics,
		logger:       logger,
		now:          now,
	}
}

// Feed loads the user's items and returns them ranked.
func (s *RankingService) Feed(ctx context.Context, userID string, q *models.FeedQuery) (*models.FeedResponse, error) {
	limit := s.defaultLimit
	filters := &models.ListContentItemsFilters{}

	if q != nil {
		if q.Limit > 0 {
			limit = q.Limit
		}

		filters.Source = q.Source
	}

	items, err := s.items.List(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}

	ranked := s.ranker.Rank(ctx, items, userID, limit)

	return &models.FeedResponse{
		Items:  ranked,
		Total:  len(items),
		Limit:  limit,
		UserID: userID,
	}, nil
}

// Rerank scores the user's recent items and notifies about each one at or above the threshold.
// An item is notified at most once per notifiedCacheTTL. It returns the number of notifications sent.
func (s *RankingService) Rerank(ctx context.Context, userID string) (int, error) {
	since := s.now().Add(-rerankWindow)

	items, err := s.items.List(ctx, userID, &models.ListContentItemsFilters{Since: &since})
	if err != nil {
		return 0, fmt.Errorf("list recent items: %w", err)
	}

	if len(items) == 0 {
		return 0, nil
	}

	ranked := s.ranker.Rank(ctx, items, userID, len(items))

	if s.notifier == nil {
		return 0, nil
	}

	sent := 0

	for _, r := range ranked {
		// Sorted descending, so nothing below this point qualifies.
		if r.FinalScore < s.threshold {
			break
		}

		if r.Degraded {
			continue
		}

		key := userID + ":" + r.Item.ID.String()
		if s.notified.Contains(key) {
			continue
		}

		if err := s.notifier.Notify(ctx, notificationFor(userID, r)); err != nil {
			s.recordNotification(ctx, "failed")
			s.logger.WarnContext(ctx, "rerank: notify failed", "user_id", userID, "item_id", r.Item.ID, "error", err)

			continue
		}

		s.notified.Add(key, struct{}{})
		s.recordNotification(ctx, "sent")

		sent++
	}

	s.logger.InfoContext(ctx, "rerank: done", "user_id", userID, "items", len(ranked), "notified", sent)

	return sent, nil
}

func (s *RankingService) recordNotification(ctx context.Context, status string) {
	if s.metrics != nil {
		s.metrics.RecordNotification(ctx, s.notifier.Channel(), status)
	}
}

func notificationFor(userID string, r models.RankedItem) Notification {
	body := r.Item.Summary
	if body == "" {
		body = truncate(r.Item.Text, notifyBodyLen)
	}

	return Notification{
		UserID:   userID,
		ItemID:   r.Item.ID,
		Title:    "High Priority: " + r.Item.Title,
		Body:     body,
		Priority: r.Item.Priority,
		Score:    r.FinalScore,
	}
}

// truncate shortens s to at most n runes, appending "..." when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n]) + "..."
}
