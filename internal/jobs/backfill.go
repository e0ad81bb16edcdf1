package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// MissingEmbeddingsLister lists items that still need a vector.
type MissingEmbeddingsLister interface {
	ListMissingEmbeddings(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// BackfillStats holds statistics from a backfill run.
type BackfillStats struct {
	Enqueued int
	Errors   int
}

// Backfill enqueues an embed job for every item without an embedding. limit <= 0 means no limit.
// Individual enqueue failures are logged and counted; the run continues.
func Backfill(ctx context.Context, lister MissingEmbeddingsLister, inserter JobInserter, limit int) (*BackfillStats, error) {
	ids, err := lister.ListMissingEmbeddings(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list items missing embeddings: %w", err)
	}

	stats := &BackfillStats{}

	for _, id := range ids {
		if err := inserter.EnqueueEmbedItem(ctx, id); err != nil {
			slog.Error("backfill: enqueue failed", "item_id", id, "error", err)

			stats.Errors++

			continue
		}

		stats.Enqueued++
	}

	return stats, nil
}
