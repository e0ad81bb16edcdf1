package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/formbricks/feedrank/internal/observability"
)

// Inserter is the subset of *river.Client used to enqueue jobs.
type Inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// uniqueStates are the job states considered when deduplicating by args.
// River requires pending to be present whenever ByState is set.
var uniqueStates = []rivertype.JobState{
	rivertype.JobStatePending,
	rivertype.JobStateAvailable,
	rivertype.JobStateRunning,
	rivertype.JobStateRetryable,
	rivertype.JobStateScheduled,
}

// insertArgs is satisfied by every job args type in this package.
type insertArgs interface {
	river.JobArgs
	river.JobArgsWithInsertOpts
}

// RiverJobInserter implements JobInserter using the River client.
type RiverJobInserter struct {
	client      Inserter
	maxAttempts int
	metrics     observability.EmbeddingMetrics
}

// NewRiverJobInserter creates a River-backed inserter. metrics may be nil.
func NewRiverJobInserter(client Inserter, maxAttempts int, metrics observability.EmbeddingMetrics) *RiverJobInserter {
	return &RiverJobInserter{client: client, maxAttempts: maxAttempts, metrics: metrics}
}

// NewClientInserter wraps a River client.
func NewClientInserter(client *river.Client[pgx.Tx], maxAttempts int, metrics observability.EmbeddingMetrics) *RiverJobInserter {
	return NewRiverJobInserter(client, maxAttempts, metrics)
}

// EnqueueEmbedItem enqueues an embedding job for one item.
func (r *RiverJobInserter) EnqueueEmbedItem(ctx context.Context, itemID uuid.UUID) error {
	res, err := r.insert(ctx, EmbedItemArgs{ItemID: itemID})
	if err != nil {
		return err
	}

	if r.metrics != nil && !res.UniqueSkippedAsDuplicate {
		r.metrics.RecordJobsEnqueued(ctx, 1)
	}

	return nil
}

// EnqueueRerank enqueues a rerank of userID's items.
func (r *RiverJobInserter) EnqueueRerank(ctx context.Context, userID string) error {
	_, err := r.insert(ctx, RerankArgs{UserID: userID})

	return err
}

// EnqueueFeedSync enqueues a news sync for userID, or for everyone when userID is empty.
func (r *RiverJobInserter) EnqueueFeedSync(ctx context.Context, userID string) error {
	_, err := r.insert(ctx, FeedSyncArgs{UserID: userID})

	return err
}

// EnqueueRebuildIndex enqueues a full similarity index rebuild.
func (r *RiverJobInserter) EnqueueRebuildIndex(ctx context.Context) error {
	_, err := r.insert(ctx, RebuildIndexArgs{})

	return err
}

func (r *RiverJobInserter) insert(ctx context.Context, args insertArgs) (*rivertype.JobInsertResult, error) {
	opts := args.InsertOpts()
	opts.MaxAttempts = r.maxAttempts
	opts.UniqueOpts = river.UniqueOpts{
		ByArgs:  true,
		ByState: uniqueStates,
	}

	res, err := r.client.Insert(ctx, args, &opts)
	if err != nil {
		return nil, fmt.Errorf("insert %s job: %w", args.Kind(), err)
	}

	return res, nil
}
