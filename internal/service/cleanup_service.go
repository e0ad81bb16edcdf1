package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// OlderThanDeleter removes rows created before a cutoff.
type OlderThanDeleter interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// IndexRebuilder reloads the similarity index.
type IndexRebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// CleanupResult reports what a retention run removed.
type CleanupResult struct {
	ItemsDeleted    int64
	FeedbackDeleted int64
	IndexedVectors  int
}

// CleanupService enforces the retention window.
type CleanupService struct {
	items     OlderThanDeleter
	feedback  OlderThanDeleter
	index     IndexRebuilder
	retention time.Duration
	now       func() time.Time
}

// NewCleanupService creates a CleanupService keeping retentionDays of data.
func NewCleanupService(items, feedback OlderThanDeleter, index IndexRebuilder, retentionDays int) *CleanupService {
	return &CleanupService{
		items:     items,
		feedback:  feedback,
		index:     index,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// Run deletes items and feedback older than the retention window, then rebuilds the index so it
// no longer holds vectors of deleted items.
func (s *CleanupService) Run(ctx context.Context) (*CleanupResult, error) {
	cutoff := s.now().Add(-s.retention)
	res := &CleanupResult{}

	n, err := s.items.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("delete old items: %w", err)
	}

	res.ItemsDeleted = n

	n, err = s.feedback.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("delete old feedback: %w", err)
	}

	res.FeedbackDeleted = n

	if res.IndexedVectors, err = s.index.Rebuild(ctx); err != nil {
		return nil, fmt.Errorf("rebuild index: %w", err)
	}

	slog.InfoContext(ctx, "cleanup: done",
		"cutoff", cutoff,
		"items_deleted", res.ItemsDeleted,
		"feedback_deleted", res.FeedbackDeleted,
		"vectors", res.IndexedVectors,
	)

	return res, nil
}
