package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/formbricks/feedrank/internal/jobs"
)

// FeedSyncer fetches news subscriptions.
type FeedSyncer interface {
	SyncUser(ctx context.Context, userID string) error
	SyncAll(ctx context.Context) error
}

// FeedSyncWorker runs a news sync for one user, or for every subscription when UserID is empty.
type FeedSyncWorker struct {
	river.WorkerDefaults[jobs.FeedSyncArgs]

	syncer FeedSyncer
}

// NewFeedSyncWorker creates the worker.
func NewFeedSyncWorker(syncer FeedSyncer) *FeedSyncWorker {
	return &FeedSyncWorker{syncer: syncer}
}

// Timeout limits how long a sync may run.
func (w *FeedSyncWorker) Timeout(*river.Job[jobs.FeedSyncArgs]) time.Duration {
	return 5 * time.Minute
}

// Work implements river.Worker.
func (w *FeedSyncWorker) Work(ctx context.Context, job *river.Job[jobs.FeedSyncArgs]) error {
	if job.Args.UserID == "" {
		if err := w.syncer.SyncAll(ctx); err != nil {
			return fmt.Errorf("sync all feeds: %w", err)
		}

		return nil
	}

	if err := w.syncer.SyncUser(ctx, job.Args.UserID); err != nil {
		return fmt.Errorf("sync feeds for %s: %w", job.Args.UserID, err)
	}

	return nil
}
