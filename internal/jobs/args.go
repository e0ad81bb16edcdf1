// Package jobs defines the River job payloads and the enqueue side of the job queue.
package jobs

import (
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// Job priorities. River runs lower numbers first.
const (
	PriorityRerank    = 1
	PriorityEmbedItem = 2
	PriorityFeedSync  = 3
	PriorityCleanup   = 4
)

// EmbedItemArgs generates and stores the embedding for one content item, then adds it to the index.
// Uniqueness is by ItemID so a re-delivered item does not queue a second job.
type EmbedItemArgs struct {
	ItemID uuid.UUID `json:"item_id" river:"unique"`
}

// Kind returns the River job kind.
func (EmbedItemArgs) Kind() string { return "embed_item" }

// InsertOpts sets the default priority.
func (EmbedItemArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Priority: PriorityEmbedItem}
}

// RerankArgs re-scores a user's recent items and notifies about the ones above the threshold.
type RerankArgs struct {
	UserID string `json:"user_id" river:"unique"`
}

// Kind returns the River job kind.
func (RerankArgs) Kind() string { return "rerank" }

// InsertOpts sets the default priority.
func (RerankArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Priority: PriorityRerank}
}

// FeedSyncArgs fetches the news subscriptions of one user, or of every user when UserID is empty.
type FeedSyncArgs struct {
	UserID string `json:"user_id,omitempty" river:"unique"`
}

// Kind returns the River job kind.
func (FeedSyncArgs) Kind() string { return "feed_sync" }

// InsertOpts sets the default priority.
func (FeedSyncArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Priority: PriorityFeedSync}
}

// CleanupArgs removes items and feedback past the retention window and rebuilds the index.
type CleanupArgs struct{}

// Kind returns the River job kind.
func (CleanupArgs) Kind() string { return "cleanup" }

// InsertOpts sets the default priority.
func (CleanupArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Priority: PriorityCleanup}
}

// RebuildIndexArgs reloads the similarity index from stored embeddings.
type RebuildIndexArgs struct{}

// Kind returns the River job kind.
func (RebuildIndexArgs) Kind() string { return "rebuild_index" }

// InsertOpts sets the default priority.
func (RebuildIndexArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Priority: PriorityCleanup}
}

var (
	_ river.JobArgsWithInsertOpts = EmbedItemArgs{}
	_ river.JobArgsWithInsertOpts = RerankArgs{}
	_ river.JobArgsWithInsertOpts = FeedSyncArgs{}
	_ river.JobArgsWithInsertOpts = CleanupArgs{}
	_ river.JobArgsWithInsertOpts = RebuildIndexArgs{}
)
