package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/feedrank/internal/apperrors"
	"github.com/formbricks/feedrank/internal/datatypes"
	"github.com/formbricks/feedrank/internal/embeddings"
	"github.com/formbricks/feedrank/internal/index"
	"github.com/formbricks/feedrank/internal/models"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	tier    embeddings.Tier
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) []float32 { return f.vectors[text] }
func (f *fakeEmbedder) Available() bool { return f.tier != embeddings.TierUnavailable }
func (f *fakeEmbedder) Tier() embeddings.Tier { return f.tier }

type fakeEmbeddingStore struct {
	rows  []models.ItemEmbedding
	items map[uuid.UUID]*models.ContentItem
}

func (f *fakeEmbeddingStore) ListEmbeddings(context.Context) ([]models.ItemEmbedding, error) {
	return f.rows, nil
}

func (f *fakeEmbeddingStore) ListByIDs(_ context.Context, userID string, ids []uuid.UUID) ([]*models.ContentItem, error) {
	out := []*models.ContentItem{}

	for _, id := range ids {
		if it, ok := f.items[id]; ok && it.UserID == userID {
			out = append(out, it)
		}
	}

	return out, nil
}

func newSearchFixture(t *testing.T) (*SearchService, *fakeEmbeddingStore, map[string]uuid.UUID) {
	t.Helper()

	ids := map[string]uuid.UUID{"gmail": uuid.New(), "news": uuid.New(), "other": uuid.New()}
	store := &fakeEmbeddingStore{
		rows: []models.ItemEmbedding{
			{ItemID: ids["gmail"], UserID: "u1", Embedding: []float32{1, 0, 0}},
			{ItemID: ids["news"], UserID: "u1", Embedding: []float32{0.9, 0.1, 0}},
			{ItemID: ids["other"], UserID: "u2", Embedding: []float32{1, 0, 0}},
		},
		items: map[uuid.UUID]*models.ContentItem{
			ids["gmail"]: {ID: ids["gmail"], UserID: "u1", Source: datatypes.SourceGmail, Title: "mail", Priority: datatypes.PriorityHigh},
			ids["news"]:  {ID: ids["news"], UserID: "u1", Source: datatypes.SourceNews, Title: "article", Priority: datatypes.PriorityLow},
			ids["other"]: {ID: ids["other"], UserID: "u2", Source: datatypes.SourceGmail, Title: "not yours"},
		},
	}

	ix := index.New(3, store, nil)
	_, err := ix.Rebuild(context.Background())
	require.NoError(t, err)

	svc := NewSearchService(SearchServiceParams{
		Embedder: &fakeEmbedder{
			tier:    embeddings.TierLocal,
			vectors: map[string][]float32{"budget": {1, 0, 0}},
		},
		Index: ix,
		Items: store,
	})

	return svc, store, ids
}

func TestSearchService_Search(t *testing.T) {
	svc, _, ids := newSearchFixture(t)
	ctx := context.Background()

	t.Run("returns own items best first", func(t *testing.T) {
		resp, err := svc.Search(ctx, "u1", &models.SearchRequest{Query: "budget"})
		require.NoError(t, err)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, ids["gmail"], resp.Results[0].ID)
		assert.InDelta(t, 1.0, resp.Results[0].SimilarityScore, 1e-6)
		assert.Equal(t, ids["news"], resp.Results[1].ID)
		assert.Equal(t, 2, resp.TotalFound)
		assert.Equal(t, "budget", resp.Query)
	})

	t.Run("source filter", func(t *testing.T) {
		topK := 1
		resp, err := svc.Search(ctx, "u1", &models.SearchRequest{
			Query: "budget", TopK: &topK, SourceFilter: []string{"news"},
		})
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, ids["news"], resp.Results[0].ID)
	})

	t.Run("threshold", func(t *testing.T) {
		threshold := 0.999
		resp, err := svc.Search(ctx, "u1", &models.SearchRequest{Query: "budget", Threshold: &threshold})
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, ids["gmail"], resp.Results[0].ID)
	})

	t.Run("blank query", func(t *testing.T) {
		_, err := svc.Search(ctx, "u1", &models.SearchRequest{Query: "   "})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("embedding failure is unavailable", func(t *testing.T) {
		_, err := svc.Search(ctx, "u1", &models.SearchRequest{Query: "unknown text"})
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	})
}

func TestSearchService_Unavailable(t *testing.T) {
	svc := NewSearchService(SearchServiceParams{
		Embedder: &fakeEmbedder{tier: embeddings.TierUnavailable},
		Index:    index.New(3, &fakeEmbeddingStore{}, nil),
		Items:    &fakeEmbeddingStore{},
	})

	_, err := svc.Search(context.Background(), "u1", &models.SearchRequest{Query: "anything"})
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestSearchService_Stats(t *testing.T) {
	svc, _, _ := newSearchFixture(t)

	st := svc.Stats("u1")
	assert.Equal(t, 3, st.TotalVectors)
	assert.Equal(t, 3, st.Dimension)
	assert.Equal(t, 2, st.Users)
	assert.Equal(t, 2, st.PerUser["u1"])
	assert.Equal(t, "local", st.EmbeddingTier)
	assert.NotNil(t, st.LastRebuild)

	n, err := svc.RebuildIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
