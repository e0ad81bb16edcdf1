// Package workers provides River job workers (item embedding, rerank, retention cleanup, feed sync).
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"golang.org/x/time/rate"

	"github.com/formbricks/feedrank/internal/apperrors"
	"github.com/formbricks/feedrank/internal/jobs"
	"github.com/formbricks/feedrank/internal/models"
	"github.com/formbricks/feedrank/internal/observability"
)

const embedItemTimeout = 45 * time.Second

// EmbeddingStore is the item persistence the embedding worker needs.
type EmbeddingStore interface {
	GetForEmbedding(ctx context.Context, id uuid.UUID) (*models.ContentItem, error)
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// ItemEmbedder produces an item's vector. Embed returns nil on failure.
type ItemEmbedder interface {
	Embed(ctx context.Context, text string) []float32
	Available() bool
}

// IndexWriter adds vectors to the similarity index.
type IndexWriter interface {
	Add(userID string, itemID uuid.UUID, vector []float32) error
}

// EmbedItemWorker generates, stores and indexes the embedding for one content item.
type EmbedItemWorker struct {
	river.WorkerDefaults[jobs.EmbedItemArgs]

	store    EmbeddingStore
	embedder ItemEmbedder
	index    IndexWriter
	limiter  *rate.Limiter
	metrics  observability.EmbeddingMetrics
}

// NewEmbedItemWorker creates the worker. limiter and metrics may be nil.
func NewEmbedItemWorker(
	store EmbeddingStore,
	embedder ItemEmbedder,
	index IndexWriter,
	limiter *rate.Limiter,
	metrics observability.EmbeddingMetrics,
) *EmbedItemWorker {
	return &EmbedItemWorker{
		store:    store,
		embedder: embedder,
		index:    index,
		limiter:  limiter,
		metrics:  metrics,
	}
}

// Timeout limits how long a single embedding job can run.
func (w *EmbedItemWorker) Timeout(*river.Job[jobs.EmbedItemArgs]) time.Duration {
	return embedItemTimeout
}

// Work loads the item, embeds title and summary, stores the vector and adds it to the index.
// Missing items and an unavailable provider complete the job without retry.
func (w *EmbedItemWorker) Work(ctx context.Context, job *river.Job[jobs.EmbedItemArgs]) error {
	itemID := job.Args.ItemID

	item, err := w.store.GetForEmbedding(ctx, itemID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			w.outcome(ctx, "skipped")
			slog.InfoContext(ctx, "embed item: item gone", "item_id", itemID)

			return nil
		}

		w.workerError(ctx, "get_item_failed")

		return fmt.Errorf("get content item: %w", err)
	}

	if len(item.Embedding) > 0 {
		return w.addToIndex(ctx, item, item.Embedding)
	}

	text := strings.TrimSpace(item.EmbeddingText())
	if text == "" || !w.embedder.Available() {
		w.outcome(ctx, "skipped")
		slog.InfoContext(ctx, "embed item: skipped", "item_id", itemID, "provider_available", w.embedder.Available())

		return nil
	}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			w.workerError(ctx, "rate_limit_failed")

			return fmt.Errorf("rate limit: %w", err)
		}
	}

	vec := w.embedder.Embed(ctx, text)
	if vec == nil {
		w.workerError(ctx, "embed_failed")

		if job.Attempt >= job.MaxAttempts {
			w.outcome(ctx, "failed_final")
			slog.ErrorContext(ctx, "embed item: embedding failed (final attempt)", "item_id", itemID)

			return nil
		}

		w.outcome(ctx, "failed")

		return fmt.Errorf("embed item %s: provider returned no vector", itemID)
	}

	if err := w.store.SetEmbedding(ctx, itemID, vec); err != nil {
		w.workerError(ctx, "update_failed")
		w.outcome(ctx, "failed")

		return fmt.Errorf("set embedding: %w", err)
	}

	return w.addToIndex(ctx, item, vec)
}

func (w *EmbedItemWorker) addToIndex(ctx context.Context, item *models.ContentItem, vec []float32) error {
	if err := w.index.Add(item.UserID, item.ID, vec); err != nil {
		// The vector is stored; the next rebuild picks it up.
		w.workerError(ctx, "index_add_failed")
		slog.WarnContext(ctx, "embed item: index add failed", "item_id", item.ID, "error", err)
	}

	w.outcome(ctx, "success")
	slog.InfoContext(ctx, "embed item: stored", "item_id", item.ID, "user_id", item.UserID)

	return nil
}

func (w *EmbedItemWorker) outcome(ctx context.Context, status string) {
	if w.metrics != nil {
		w.metrics.RecordEmbeddingOutcome(ctx, status)
	}
}

func (w *EmbedItemWorker) workerError(ctx context.Context, reason string) {
	if w.metrics != nil {
		w.metrics.RecordWorkerError(ctx, reason)
	}
}
