package index

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/feedrank/internal/models"
)

type fakeStore struct {
	mu   sync.Mutex
	rows []models.ItemEmbedding
	err  error
}

func (f *fakeStore) ListEmbeddings(_ context.Context) ([]models.ItemEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	return append([]models.ItemEmbedding(nil), f.rows...), nil
}

func TestIndex_AddAndSearchIsolatedByUser(t *testing.T) {
	ix := New(2, &fakeStore{}, nil)

	aliceNear, aliceFar, bobNear := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, ix.Add("alice", aliceNear, []float32{10, 0}))
	require.NoError(t, ix.Add("alice", aliceFar, []float32{0, 3}))
	require.NoError(t, ix.Add("bob", bobNear, []float32{1, 0}))

	hits := ix.Search("alice", []float32{1, 0}, 10, 0)
	require.Len(t, hits, 2)
	assert.Equal(t, aliceNear, hits[0].ItemID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, aliceFar, hits[1].ItemID)
	assert.InDelta(t, 0.0, hits[1].Score, 1e-6)

	for _, h := range hits {
		assert.NotEqual(t, bobNear, h.ItemID)
	}

	assert.Empty(t, ix.Search("carol", []float32{1, 0}, 10, 0))
}

func TestIndex_SearchThresholdAndTopK(t *testing.T) {
	ix := New(2, &fakeStore{}, nil)

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	require.NoError(t, ix.Add("u", ids[0], []float32{1, 0}))
	require.NoError(t, ix.Add("u", ids[1], []float32{1, 1}))
	require.NoError(t, ix.Add("u", ids[2], []float32{-1, 0}))

	hits := ix.Search("u", []float32{1, 0}, 10, 0.5)
	require.Len(t, hits, 2)
	assert.Equal(t, ids[0], hits[0].ItemID)
	assert.Equal(t, ids[1], hits[1].ItemID)

	hits = ix.Search("u", []float32{1, 0}, 1, -1)
	require.Len(t, hits, 1)
	assert.Equal(t, ids[0], hits[0].ItemID)

	assert.Nil(t, ix.Search("u", []float32{0, 0}, 5, 0))
	assert.Nil(t, ix.Search("u", []float32{1, 0, 0}, 5, 0))
	assert.Nil(t, ix.Search("u", []float32{1, 0}, 0, 0))
}

func TestIndex_AddReplacesSameItem(t *testing.T) {
	ix := New(2, &fakeStore{}, nil)
	id := uuid.New()

	require.NoError(t, ix.Add("u", id, []float32{1, 0}))
	require.NoError(t, ix.Add("u", id, []float32{0, 1}))

	assert.Equal(t, 1, ix.Stats().TotalVectors)

	hits := ix.Search("u", []float32{0, 1}, 5, 0.9)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].ItemID)
}

func TestIndex_AddRejectsWrongDimension(t *testing.T) {
	ix := New(3, &fakeStore{}, nil)

	err := ix.Add("u", uuid.New(), []float32{1, 2})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Zero(t, ix.Stats().TotalVectors)
}

func TestIndex_RebuildAndRemove(t *testing.T) {
	keep, drop := uuid.New(), uuid.New()
	store := &fakeStore{rows: []models.ItemEmbedding{
		{ItemID: keep, UserID: "u", Embedding: []float32{1, 0}},
		{ItemID: drop, UserID: "u", Embedding: []float32{0.9, 0.1}},
		{ItemID: uuid.New(), UserID: "v", Embedding: []float32{1, 2, 3}},
	}}
	ix := New(2, store, nil)

	n, err := ix.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats := ix.Stats()
	assert.Equal(t, 2, stats.TotalVectors)
	assert.Equal(t, 1, stats.Users)
	assert.Equal(t, 2, stats.Dimension)
	assert.False(t, stats.LastRebuild.IsZero())
	assert.Equal(t, 2, ix.UserCount("u"))

	store.mu.Lock()
	store.rows = store.rows[:1]
	store.mu.Unlock()

	require.NoError(t, ix.Remove(context.Background(), drop))

	hits := ix.Search("u", []float32{1, 0}, 10, 0)
	require.Len(t, hits, 1)
	assert.Equal(t, keep, hits[0].ItemID)
}

func TestIndex_RebuildFailureKeepsSnapshot(t *testing.T) {
	store := &fakeStore{}
	ix := New(2, store, nil)
	require.NoError(t, ix.Add("u", uuid.New(), []float32{1, 0}))

	store.err = errors.New("db down")

	_, err := ix.Rebuild(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, ix.Stats().TotalVectors)
}

func TestIndex_ConcurrentSearchDuringRebuild(t *testing.T) {
	rows := make([]models.ItemEmbedding, 0, 200)
	for i := range 200 {
		rows = append(rows, models.ItemEmbedding{ItemID: uuid.New(), UserID: "u", Embedding: []float32{1, float32(i)}})
	}

	ix := New(2, &fakeStore{rows: rows}, nil)
	_, err := ix.Rebuild(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 50 {
				// A search sees either the old or the new snapshot, both complete.
				assert.Len(t, ix.Search("u", []float32{1, 0}, 500, -1), 200)
			}
		}()
	}

	for range 5 {
		_, err := ix.Rebuild(context.Background())
		require.NoError(t, err)
	}

	wg.Wait()
}
