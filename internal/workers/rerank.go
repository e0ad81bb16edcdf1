package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/formbricks/feedrank/internal/jobs"
)

// Reranker re-scores a user's recent items and sends notifications.
type Reranker interface {
	Rerank(ctx context.Context, userID string) (int, error)
}

// RerankWorker runs a rerank for one user.
type RerankWorker struct {
	river.WorkerDefaults[jobs.RerankArgs]

	reranker Reranker
}

// NewRerankWorker creates the worker.
func NewRerankWorker(reranker Reranker) *RerankWorker {
	return &RerankWorker{reranker: reranker}
}

// Timeout limits how long a rerank may run.
func (w *RerankWorker) Timeout(*river.Job[jobs.RerankArgs]) time.Duration {
	return 2 * time.Minute
}

// Work implements river.Worker.
func (w *RerankWorker) Work(ctx context.Context, job *river.Job[jobs.RerankArgs]) error {
	if _, err := w.reranker.Rerank(ctx, job.Args.UserID); err != nil {
		return fmt.Errorf("rerank %s: %w", job.Args.UserID, err)
	}

	return nil
}
