package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/feedrank/internal/apperrors"
	"github.com/formbricks/feedrank/internal/datatypes"
	"github.com/formbricks/feedrank/internal/models"
	"github.com/formbricks/feedrank/internal/service"
)

type mockSearchService struct {
	searchFunc  func(ctx context.Context, userID string, req *models.SearchRequest) (*models.SearchResponse, error)
	stats       models.IndexStats
	rebuildFunc func(ctx context.Context) (int, error)
}

func (m *mockSearchService) Search(
	ctx context.Context, userID string, req *models.SearchRequest,
) (*models.SearchResponse, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, userID, req)
	}

	return &models.SearchResponse{Results: []models.SearchResultItem{}}, nil
}

func (m *mockSearchService) Stats(string) models.IndexStats { return m.stats }

func (m *mockSearchService) RebuildIndex(ctx context.Context) (int, error) {
	if m.rebuildFunc != nil {
		return m.rebuildFunc(ctx)
	}

	return 0, nil
}

func TestSearchHandler_Search(t *testing.T) {
	t.Run("success returns 200", func(t *testing.T) {
		mock := &mockSearchService{
			searchFunc: func(_ context.Context, userID string, req *models.SearchRequest) (*models.SearchResponse, error) {
				assert.Equal(t, "user-1", userID)
				assert.Equal(t, "quarterly report", req.Query)
				require.NotNil(t, req.TopK)
				assert.Equal(t, 5, *req.TopK)

				return &models.SearchResponse{
					Query:      req.Query,
					Results:    []models.SearchResultItem{{
						Title:           "Q3 report",
						Priority:        datatypes.PriorityMedium,
						SimilarityScore: 0.82,
					}},
					TotalFound: 1,
				}, nil
			},
		}
		rec := httptest.NewRecorder()

		NewSearchHandler(mock).Search(rec,
			newUserRequest(http.MethodPost, "/v1/search", `{"query":"quarterly report","top_k":5}`, "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp models.SearchResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "Q3 report", resp.Results[0].Title)
		assert.Equal(t, datatypes.PriorityMedium, resp.Results[0].Priority)
	})

	t.Run("blank query returns 400", func(t *testing.T) {
		called := false
		mock := &mockSearchService{
			searchFunc: func(context.Context, string, *models.SearchRequest) (*models.SearchResponse, error) {
				called = true

				return nil, service.ErrEmptyQuery
			},
		}
		rec := httptest.NewRecorder()

		NewSearchHandler(mock).Search(rec, newUserRequest(http.MethodPost, "/v1/search", `{"query":"   "}`, "user-1"))

		require.True(t, called)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("out of range top_k is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()

		NewSearchHandler(&mockSearchService{}).Search(rec,
			newUserRequest(http.MethodPost, "/v1/search", `{"query":"x","top_k":500}`, "user-1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown source filter is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()

		NewSearchHandler(&mockSearchService{}).Search(rec,
			newUserRequest(http.MethodPost, "/v1/search", `{"query":"x","source_filter":["fax"]}`, "user-1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unavailable provider returns 503", func(t *testing.T) {
		mock := &mockSearchService{
			searchFunc: func(context.Context, string, *models.SearchRequest) (*models.SearchResponse, error) {
				return nil, apperrors.NewUnavailableError("embedding provider")
			},
		}
		rec := httptest.NewRecorder()

		NewSearchHandler(mock).Search(rec, newUserRequest(http.MethodPost, "/v1/search", `{"query":"x"}`, "user-1"))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestSearchHandler_Stats(t *testing.T) {
	mock := &mockSearchService{stats: models.IndexStats{TotalVectors: 3, Dimension: 384, EmbeddingTier: "local"}}
	rec := httptest.NewRecorder()

	NewSearchHandler(mock).Stats(rec, newUserRequest(http.MethodGet, "/v1/search/stats", "", "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.IndexStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 3, stats.TotalVectors)
	assert.Equal(t, "local", stats.EmbeddingTier)
}

func TestSearchHandler_RebuildIndex(t *testing.T) {
	t.Run("reports vector count", func(t *testing.T) {
		mock := &mockSearchService{rebuildFunc: func(context.Context) (int, error) { return 42, nil }}
		rec := httptest.NewRecorder()

		NewSearchHandler(mock).RebuildIndex(rec, newUserRequest(http.MethodPost, "/v1/search/rebuild-index", "", "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp RebuildIndexResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 42, resp.TotalVectors)
		assert.Equal(t, "Vector index rebuilt successfully", resp.Message)
	})

	t.Run("failure returns 500", func(t *testing.T) {
		mock := &mockSearchService{rebuildFunc: func(context.Context) (int, error) { return 0, errors.New("db down") }}
		rec := httptest.NewRecorder()

		NewSearchHandler(mock).RebuildIndex(rec, newUserRequest(http.MethodPost, "/v1/search/rebuild-index", "", "user-1"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
