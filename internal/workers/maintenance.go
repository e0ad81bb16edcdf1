package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/formbricks/feedrank/internal/jobs"
	"github.com/formbricks/feedrank/internal/service"
)

// Cleaner enforces data retention.
type Cleaner interface {
	Run(ctx context.Context) (*service.CleanupResult, error)
}

// CleanupWorker runs the retention cleanup. It is scheduled as a periodic job.
type CleanupWorker struct {
	river.WorkerDefaults[jobs.CleanupArgs]

	cleaner Cleaner
}

// NewCleanupWorker creates the worker.
func NewCleanupWorker(cleaner Cleaner) *CleanupWorker {
	return &CleanupWorker{cleaner: cleaner}
}

// Work implements river.Worker.
func (w *CleanupWorker) Work(ctx context.Context, _ *river.Job[jobs.CleanupArgs]) error {
	if _, err := w.cleaner.Run(ctx); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	return nil
}

// Rebuilder reloads the similarity index.
type Rebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// RebuildIndexWorker rebuilds the similarity index from stored embeddings.
type RebuildIndexWorker struct {
	river.WorkerDefaults[jobs.RebuildIndexArgs]

	index Rebuilder
}

// NewRebuildIndexWorker creates the worker.
func NewRebuildIndexWorker(index Rebuilder) *RebuildIndexWorker {
	return &RebuildIndexWorker{index: index}
}

// Work implements river.Worker.
func (w *RebuildIndexWorker) Work(ctx context.Context, _ *river.Job[jobs.RebuildIndexArgs]) error {
	n, err := w.index.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	slog.InfoContext(ctx, "rebuild index job: done", "vectors", n)

	return nil
}
