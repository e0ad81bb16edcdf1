package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/formbricks/feedrank/internal/datatypes"
	"github.com/formbricks/feedrank/internal/jobs"
	"github.com/formbricks/feedrank/internal/models"
)

const defaultRelevanceScore = 0.5

// ContentItemSaver persists items with deduplication.
type ContentItemSaver interface {
	Save(ctx context.Context, item *models.ContentItem) (*models.SaveResult, error)
}

// IngestStats summarizes a batch ingest.
type IngestStats struct {
	Saved   int
	Skipped int
	Failed  int
}

// ContentItemsService stores new content and schedules the follow-up jobs.
type ContentItemsService struct {
	repo     ContentItemSaver
	inserter jobs.JobInserter
	logger   *slog.Logger
	now      func() time.Time
}

// NewContentItemsService creates a ContentItemsService. inserter may be nil (no background jobs).
func NewContentItemsService(repo ContentItemSaver, inserter jobs.JobInserter, logger *slog.Logger) *ContentItemsService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ContentItemsService{repo: repo, inserter: inserter, logger: logger, now: time.Now}
}

// ItemFromRequest builds a ContentItem for userID from an ingest request, filling defaults:
// date now, priority medium, relevance 0.5.
func (s *ContentItemsService) ItemFromRequest(userID string, req *models.CreateContentItemRequest) *models.ContentItem {
	item := &models.ContentItem{
		UserID:         userID,
		Source:         datatypes.Source(req.Source),
		OriginID:       req.OriginID,
		Title:          req.Title,
		Summary:        req.Summary,
		Text:           req.Text,
		Date:           s.now().UTC(),
		Priority:       datatypes.PriorityMedium,
		RelevanceScore: defaultRelevanceScore,
		Entities:       req.Entities,
		ExtractedTasks: req.ExtractedTasks,
		Metadata:       req.Metadata,
	}

	if req.Date != nil {
		item.Date = *req.Date
	}

	if p, ok := datatypes.ParsePriority(req.Priority); ok {
		item.Priority = p
	}

	if req.RelevanceScore != nil {
		item.RelevanceScore = *req.RelevanceScore
	}

	item.HasTasks = len(item.ExtractedTasks) > 0

	return item
}

// Create stores one item pushed through the API and schedules embedding and a rerank.
func (s *ContentItemsService) Create(
	ctx context.Context, userID string, req *models.CreateContentItemRequest,
) (*models.SaveResult, error) {
	res, err := s.Ingest(ctx, s.ItemFromRequest(userID, req))
	if err != nil {
		return nil, err
	}

	if !res.Skipped {
		s.enqueueRerank(ctx, userID)
	}

	return res, nil
}

// Ingest saves item and, when it is new, enqueues its embedding job. A failed enqueue is logged;
// the item stays stored and ranks with a neutral semantic score until a backfill picks it up.
func (s *ContentItemsService) Ingest(ctx context.Context, item *models.ContentItem) (*models.SaveResult, error) {
	if !item.Priority.IsValid() {
		item.Priority = datatypes.PriorityMedium
	}

	res, err := s.repo.Save(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("save content item: %w", err)
	}

	if res.Skipped {
		s.logger.DebugContext(ctx, "ingest: duplicate skipped",
			"user_id", item.UserID, "source", item.Source, "origin_id", item.OriginID)

		return res, nil
	}

	if s.inserter != nil {
		if err := s.inserter.EnqueueEmbedItem(ctx, res.Item.ID); err != nil {
			s.logger.WarnContext(ctx, "ingest: enqueue embedding failed", "item_id", res.Item.ID, "error", err)
		}
	}

	return res, nil
}

// IngestBatch saves items for one user and enqueues a single rerank when anything new arrived.
func (s *ContentItemsService) IngestBatch(ctx context.Context, userID string, items []*models.ContentItem) IngestStats {
	var stats IngestStats

	for _, item := range items {
		item.UserID = userID

		res, err := s.Ingest(ctx, item)
		if err != nil {
			s.logger.ErrorContext(ctx, "ingest: save failed", "user_id", userID, "origin_id", item.OriginID, "error", err)

			stats.Failed++

			continue
		}

		if res.Skipped {
			stats.Skipped++
		} else {
			stats.Saved++
		}
	}

	if stats.Saved > 0 {
		s.enqueueRerank(ctx, userID)
	}

	return stats
}

func (s *ContentItemsService) enqueueRerank(ctx context.Context, userID string) {
	if s.inserter == nil {
		return
	}

	if err := s.inserter.EnqueueRerank(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "ingest: enqueue rerank failed", "user_id", userID, "error", err)
	}
}
