package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/feedrank/internal/datatypes"
	"github.com/formbricks/feedrank/internal/models"
)

type mockItemsLister struct {
	listFunc func(ctx context.Context, userID string, filters *models.ListContentItemsFilters) ([]*models.ContentItem, error)
}

func (m *mockItemsLister) List(
	ctx context.Context, userID string, filters *models.ListContentItemsFilters,
) ([]*models.ContentItem, error) {
	return m.listFunc(ctx, userID, filters)
}

// scoreRanker assigns fixed scores by item title, sorted descending.
type scoreRanker struct {
	scores   map[string]float64
	degraded bool
	limits   []int
}

func (r *scoreRanker) Rank(_ context.Context, items []*models.ContentItem, _ string, limit int) []models.RankedItem {
	r.limits = append(r.limits, limit)

	out := make([]models.RankedItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.RankedItem{Item: it, FinalScore: r.scores[it.Title], Degraded: r.degraded})
	}

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].FinalScore > out[j-1].FinalScore; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}

type recordingNotifier struct {
	sent []Notification
	err  error
}

func (n *recordingNotifier) Channel() string { return "test" }

func (n *recordingNotifier) Notify(_ context.Context, note Notification) error {
	if n.err != nil {
		return n.err
	}

	n.sent = append(n.sent, note)

	return nil
}

func rankingItems() []*models.ContentItem {
	return []*models.ContentItem{
		{ID: uuid.New(), Title: "low", Priority: datatypes.PriorityLow, Summary: "s-low"},
		{ID: uuid.New(), Title: "high", Priority: datatypes.PriorityHigh, Text: "body text"},
		{ID: uuid.New(), Title: "mid", Priority: datatypes.PriorityMedium},
	}
}

func TestRankingService_Feed(t *testing.T) {
	items := rankingItems()
	src := "news"

	var gotFilters *models.ListContentItemsFilters

	ranker := &scoreRanker{scores: map[string]float64{"low": 0.2, "high": 0.9, "mid": 0.5}}
	svc := NewRankingService(RankingServiceParams{
		Items: &mockItemsLister{listFunc: func(_ context.Context, userID string, f *models.ListContentItemsFilters) ([]*models.ContentItem, error) {
			assert.Equal(t, "u1", userID)

			gotFilters = f

			return items, nil
		}},
		Ranker:       ranker,
		DefaultLimit: 2,
	})

	resp, err := svc.Feed(context.Background(), "u1", &models.FeedQuery{Source: &src})
	require.NoError(t, err)

	assert.Equal(t, &src, gotFilters.Source)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Limit)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "high", resp.Items[0].Item.Title)
	assert.Equal(t, "mid", resp.Items[1].Item.Title)
}

func TestRankingService_FeedListError(t *testing.T) {
	svc := NewRankingService(RankingServiceParams{
		Items: &mockItemsLister{listFunc: func(context.Context, string, *models.ListContentItemsFilters) ([]*models.ContentItem, error) {
			return nil, errors.New("db down")
		}},
		Ranker: &scoreRanker{},
	})

	_, err := svc.Feed(context.Background(), "u1", nil)
	require.Error(t, err)
}

func TestRankingService_Rerank(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := rankingItems()

	newService := func(n Notifier, ranker *scoreRanker) *RankingService {
		return NewRankingService(RankingServiceParams{
			Items: &mockItemsLister{listFunc: func(_ context.Context, _ string, f *models.ListContentItemsFilters) ([]*models.ContentItem, error) {
				require.NotNil(t, f.Since)
				assert.Equal(t, now.Add(-24*time.Hour), *f.Since)

				return items, nil
			}},
			Ranker:    ranker,
			Notifier:  n,
			Threshold: 0.8,
			Now:       func() time.Time { return now },
		})
	}

	t.Run("notifies items at or above threshold once", func(t *testing.T) {
		n := &recordingNotifier{}
		svc := newService(n, &scoreRanker{scores: map[string]float64{"low": 0.2, "high": 0.9, "mid": 0.8}})

		sent, err := svc.Rerank(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, 2, sent)
		require.Len(t, n.sent, 2)
		assert.Equal(t, "High Priority: high", n.sent[0].Title)
		assert.Equal(t, "body text", n.sent[0].Body)
		assert.Equal(t, "u1", n.sent[0].UserID)

		sent, err = svc.Rerank(context.Background(), "u1")
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Len(t, n.sent, 2)
	})

	t.Run("degraded rankings never notify", func(t *testing.T) {
		n := &recordingNotifier{}
		svc := newService(n, &scoreRanker{scores: map[string]float64{"high": 0.9}, degraded: true})

		sent, err := svc.Rerank(context.Background(), "u1")
		require.NoError(t, err)
		assert.Zero(t, sent)
	})

	t.Run("notify failure is not an error", func(t *testing.T) {
		n := &recordingNotifier{err: errors.New("unreachable")}
		svc := newService(n, &scoreRanker{scores: map[string]float64{"high": 0.9}})

		sent, err := svc.Rerank(context.Background(), "u1")
		require.NoError(t, err)
		assert.Zero(t, sent)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "né...", truncate("néant", 2))
}
