// Package index holds an in-memory flat vector index over item embeddings, partitioned by user.
// Vectors are unit-normalized on the way in, so the inner product is the cosine similarity.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/formbricks/feedrank/internal/models"
	"github.com/formbricks/feedrank/internal/observability"
	"github.com/formbricks/feedrank/pkg/embeddings"
)

// ErrDimensionMismatch is returned by Add for vectors of the wrong length.
var ErrDimensionMismatch = errors.New("index: vector dimension mismatch")

// EmbeddingLister loads every persisted item embedding. The content item store implements it.
type EmbeddingLister interface {
	ListEmbeddings(ctx context.Context) ([]models.ItemEmbedding, error)
}

// Hit is one search result.
type Hit struct {
	ItemID uuid.UUID
	Score  float64
}

type entry struct {
	itemID uuid.UUID
	vector []float32
}

// snapshot is immutable once published; writers build a new one and swap it in.
type snapshot struct {
	byUser  map[string][]entry
	total   int
	rebuilt time.Time
}

// Index is safe for concurrent use. Searches never block on writers.
type Index struct {
	dims    int
	store   EmbeddingLister
	metrics observability.RankingMetrics

	writeMu sync.Mutex
	current atomic.Pointer[snapshot]
}

// New returns an empty index for vectors of length dims.
func New(dims int, store EmbeddingLister, metrics observability.RankingMetrics) *Index {
	ix := &Index{dims: dims, store: store, metrics: metrics}
	ix.current.Store(&snapshot{byUser: map[string][]entry{}})

	return ix
}

// Add inserts or replaces the vector for itemID in userID's partition.
func (ix *Index) Add(userID string, itemID uuid.UUID, vector []float32) error {
	if len(vector) != ix.dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), ix.dims)
	}

	e := entry{itemID: itemID, vector: embeddings.NormalizedCopy(vector)}

	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	old := ix.current.Load()

	byUser := make(map[string][]entry, len(old.byUser)+1)
	for u, entries := range old.byUser {
		byUser[u] = entries
	}

	entries := make([]entry, 0, len(old.byUser[userID])+1)
	total := old.total

	for _, existing := range old.byUser[userID] {
		if existing.itemID == itemID {
			total--

			continue
		}

		entries = append(entries, existing)
	}

	byUser[userID] = append(entries, e)
	ix.publish(&snapshot{byUser: byUser, total: total + 1, rebuilt: old.rebuilt})

	return nil
}

// Remove drops itemID. A flat index has no in-place delete, so this rebuilds from the store,
// which must no longer contain the item.
func (ix *Index) Remove(ctx context.Context, itemID uuid.UUID) error {
	if _, err := ix.Rebuild(ctx); err != nil {
		return fmt.Errorf("remove %s: %w", itemID, err)
	}

	return nil
}

// Rebuild loads all embeddings from the store into a fresh snapshot and swaps it in.
// Searches keep using the previous snapshot until the swap. Returns the vector count.
func (ix *Index) Rebuild(ctx context.Context) (int, error) {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	start := time.Now()

	rows, err := ix.store.ListEmbeddings(ctx)
	if err != nil {
		return 0, fmt.Errorf("list embeddings: %w", err)
	}

	snap := &snapshot{byUser: make(map[string][]entry), rebuilt: time.Now()}

	for _, row := range rows {
		if len(row.Embedding) != ix.dims {
			slog.Warn("skipping embedding with unexpected dimension",
				"item_id", row.ItemID, "got", len(row.Embedding), "want", ix.dims)

			continue
		}

		snap.byUser[row.UserID] = append(snap.byUser[row.UserID], entry{
			itemID: row.ItemID,
			vector: embeddings.NormalizedCopy(row.Embedding),
		})
		snap.total++
	}

	ix.publish(snap)

	if ix.metrics != nil {
		ix.metrics.RecordIndexRebuild(ctx, time.Since(start))
	}

	slog.Info("similarity index rebuilt", "vectors", snap.total, "users", len(snap.byUser), "duration", time.Since(start))

	return snap.total, nil
}

func (ix *Index) publish(s *snapshot) {
	ix.current.Store(s)

	if ix.metrics != nil {
		ix.metrics.SetIndexVectors(s.total)
	}
}

// Search returns up to topK of userID's items whose cosine similarity to query is at least
// threshold, best first. Other users' vectors are never scored.
func (ix *Index) Search(userID string, query []float32, topK int, threshold float64) []Hit {
	if len(query) != ix.dims || topK <= 0 {
		return nil
	}

	q := embeddings.NormalizedCopy(query)
	if embeddings.Norm(q) == 0 {
		return nil
	}

	entries := ix.current.Load().byUser[userID]
	hits := make([]Hit, 0, min(topK, len(entries)))

	for _, e := range entries {
		score := embeddings.Dot(q, e.vector)
		if score < threshold {
			continue
		}

		hits = append(hits, Hit{ItemID: e.itemID, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if len(hits) > topK {
		hits = hits[:topK]
	}

	return hits
}

// Stats describes the current snapshot.
type Stats struct {
	TotalVectors int
	Dimension    int
	Users        int
	LastRebuild  time.Time
}

// Stats returns index-wide counters.
func (ix *Index) Stats() Stats {
	s := ix.current.Load()

	return Stats{
		TotalVectors: s.total,
		Dimension:    ix.dims,
		Users:        len(s.byUser),
		LastRebuild:  s.rebuilt,
	}
}

// UserCount returns the number of vectors owned by userID.
func (ix *Index) UserCount(userID string) int {
	return len(ix.current.Load().byUser[userID])
}
