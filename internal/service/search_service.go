package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/formbricks/feedrank/internal/apperrors"
	"github.com/formbricks/feedrank/internal/embeddings"
	"github.com/formbricks/feedrank/internal/index"
	"github.com/formbricks/feedrank/internal/models"
)

const defaultSearchTopK = 10

// Sentinel errors for search (used by handlers for status mapping).
var (
	ErrEmptyQuery = errors.New("query is required and must be non-empty")
)

// QueryEmbedder embeds search queries.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) []float32
	Available() bool
	Tier() embeddings.Tier
}

// VectorIndex is the similarity index used by search.
type VectorIndex interface {
	Search(userID string, query []float32, topK int, threshold float64) []index.Hit
	Rebuild(ctx context.Context) (int, error)
	Stats() index.Stats
	UserCount(userID string) int
}

// ItemsByID loads a user's items by id.
type ItemsByID interface {
	ListByIDs(ctx context.Context, userID string, ids []uuid.UUID) ([]*models.ContentItem, error)
}

// SearchService performs semantic search over a user's items.
type SearchService struct {
	embedder QueryEmbedder
	index    VectorIndex
	items    ItemsByID
	logger   *slog.Logger
}

// SearchServiceParams configures SearchService. Logger may be nil.
type SearchServiceParams struct {
	Embedder QueryEmbedder
	Index    VectorIndex
	Items    ItemsByID
	Logger   *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(p SearchServiceParams) *SearchService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchService{
		embedder: p.Embedder,
		index:    p.Index,
		items:    p.Items,
		logger:   logger,
	}
}

// Search embeds the query and returns the user's most similar items. When the embedding provider
// is unavailable it returns an apperrors.UnavailableError.
func (s *SearchService) Search(ctx context.Context, userID string, req *models.SearchRequest) (*models.SearchResponse, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	topK := defaultSearchTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	threshold := 0.0
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	if !s.embedder.Available() {
		return nil, apperrors.NewUnavailableError("semantic search")
	}

	vec := s.embedder.Embed(ctx, query)
	if vec == nil {
		s.logger.WarnContext(ctx, "search: query embedding failed", "tier", s.embedder.Tier().String())

		return nil, apperrors.NewUnavailableError("semantic search")
	}

	// A source filter is applied after loading items, so every candidate is scored first.
	limit := topK
	if len(req.SourceFilter) > 0 {
		limit = s.index.UserCount(userID)
	}

	hits := s.index.Search(userID, vec, limit, threshold)

	results, err := s.loadResults(ctx, userID, hits, req.SourceFilter, topK)
	if err != nil {
		return nil, err
	}

	return &models.SearchResponse{
		Query:        req.Query,
		Results:      results,
		TotalFound:   len(results),
		SearchTimeMS: float64(time.Since(start).Microseconds()) / 1000,
	}, nil
}

func (s *SearchService) loadResults(
	ctx context.Context, userID string, hits []index.Hit, sources []string, topK int,
) ([]models.SearchResultItem, error) {
	results := []models.SearchResultItem{}
	if len(hits) == 0 {
		return results, nil
	}

	ids := make([]uuid.UUID, len(hits))
	scores := make(map[uuid.UUID]float64, len(hits))

	for i, h := range hits {
		ids[i] = h.ItemID
		scores[h.ItemID] = h.Score
	}

	items, err := s.items.ListByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("load search results: %w", err)
	}

	for _, item := range items {
		if len(sources) > 0 && !slices.Contains(sources, string(item.Source)) {
			continue
		}

		results = append(results, searchResult(item, scores[item.ID]))
		if len(results) == topK {
			break
		}
	}

	return results, nil
}

func searchResult(item *models.ContentItem, score float64) models.SearchResultItem {
	return models.SearchResultItem{
		ID:              item.ID,
		Title:           item.Title,
		Summary:         item.Summary,
		Source:          item.Source,
		Date:            item.Date,
		Priority:        item.Priority,
		RelevanceScore:  item.RelevanceScore,
		SimilarityScore: score,
		Entities:        item.Entities,
		HasTasks:        item.HasTasks,
	}
}

// Stats describes the similarity index, including the calling user's share.
func (s *SearchService) Stats(userID string) models.IndexStats {
	st := s.index.Stats()

	out := models.IndexStats{
		TotalVectors:  st.TotalVectors,
		Dimension:     st.Dimension,
		Users:         st.Users,
		PerUser:       map[string]int{userID: s.index.UserCount(userID)},
		EmbeddingTier: s.embedder.Tier().String(),
	}

	if !st.LastRebuild.IsZero() {
		t := st.LastRebuild
		out.LastRebuild = &t
	}

	return out
}

// RebuildIndex reloads the index from stored embeddings.
func (s *SearchService) RebuildIndex(ctx context.Context) (int, error) {
	n, err := s.index.Rebuild(ctx)
	if err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	return n, nil
}
