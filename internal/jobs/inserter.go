package jobs

import (
	"context"

	"github.com/google/uuid"
)

// JobInserter enqueues background work without exposing River to services.
type JobInserter interface {
	EnqueueEmbedItem(ctx context.Context, itemID uuid.UUID) error
	EnqueueRerank(ctx context.Context, userID string) error
	EnqueueFeedSync(ctx context.Context, userID string) error
	EnqueueRebuildIndex(ctx context.Context) error
}
