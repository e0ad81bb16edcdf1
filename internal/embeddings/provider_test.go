package embeddings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDims = 8

func newTestProvider(client Client, cacheSize int) *Provider {
	return NewProvider(TierLocal, client, time.Second, ProviderConfig{Dimensions: testDims, CacheSize: cacheSize})
}

func TestProvider_EmbedBlankAndUnavailable(t *testing.T) {
	mock := NewMockClient(testDims)
	p := newTestProvider(mock, 10)

	assert.Nil(t, p.Embed(context.Background(), ""))
	assert.Nil(t, p.Embed(context.Background(), "   "))
	assert.Equal(t, int64(0), mock.Calls())

	unavailable := NewProvider(TierLocal, nil, 0, ProviderConfig{Dimensions: testDims})
	assert.Equal(t, TierUnavailable, unavailable.Tier())
	assert.False(t, unavailable.Available())
	assert.Nil(t, unavailable.Embed(context.Background(), "hello"))
	assert.Equal(t, [][]float32{nil, nil}, unavailable.EmbedBatch(context.Background(), []string{"a", "b"}))
}

func TestProvider_EmbedCachesResults(t *testing.T) {
	mock := NewMockClient(testDims)
	p := newTestProvider(mock, 10)

	first := p.Embed(context.Background(), "quarterly report")
	require.Len(t, first, testDims)

	second := p.Embed(context.Background(), "quarterly report")
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), mock.Calls())
}

func TestProvider_EmbedFailureReturnsNil(t *testing.T) {
	mock := NewMockClient(testDims)
	mock.SetFail(true)
	p := newTestProvider(mock, 10)

	assert.Nil(t, p.Embed(context.Background(), "hello"))

	// Failures are not cached: the next call reaches the backend again.
	mock.SetFail(false)
	assert.Len(t, p.Embed(context.Background(), "hello"), testDims)
}

func TestProvider_EmbedRejectsWrongDimension(t *testing.T) {
	mock := NewMockClient(testDims)
	mock.Set("odd", []float32{1, 2, 3})
	p := newTestProvider(mock, 0)

	assert.Nil(t, p.Embed(context.Background(), "odd"))
}

func TestProvider_EmbedBatchAlignsPositions(t *testing.T) {
	mock := NewMockClient(testDims)
	p := newTestProvider(mock, 10)

	cached := p.Embed(context.Background(), "cached")
	require.NotNil(t, cached)

	out := p.EmbedBatch(context.Background(), []string{"alpha", "", "cached", "alpha", "  "})
	require.Len(t, out, 5)
	assert.NotNil(t, out[0])
	assert.Nil(t, out[1])
	assert.Equal(t, cached, out[2])
	assert.Equal(t, out[0], out[3])
	assert.Nil(t, out[4])
	// One call for "cached", one batched call for "alpha".
	assert.Equal(t, int64(2), mock.Calls())
}

func TestProvider_EmbedBatchFailure(t *testing.T) {
	mock := NewMockClient(testDims)
	mock.SetFail(true)
	p := newTestProvider(mock, 10)

	assert.Equal(t, [][]float32{nil, nil}, p.EmbedBatch(context.Background(), []string{"a", "b"}))
}

type slowClient struct{ *MockClient }

func (s slowClient) CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Second):
		return s.MockClient.CreateEmbeddings(ctx, inputs)
	}
}

func TestProvider_TimeoutIsFailure(t *testing.T) {
	p := NewProvider(TierRemote, slowClient{NewMockClient(testDims)}, 20*time.Millisecond, ProviderConfig{Dimensions: testDims})

	start := time.Now()
	assert.Nil(t, p.Embed(context.Background(), "hello"))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestNegotiate(t *testing.T) {
	down := NewMockClient(testDims)
	down.SetFail(true)

	wrongDims := NewMockClient(testDims + 1)
	remote := NewMockClient(testDims)

	t.Run("falls through to first working tier", func(t *testing.T) {
		p := Negotiate(context.Background(), []Candidate{
			{Tier: TierLocal, Client: down},
			{Tier: TierLocal, Client: wrongDims},
			{Tier: TierRemote, Client: remote, Timeout: time.Second},
		}, ProviderConfig{Dimensions: testDims})

		assert.Equal(t, TierRemote, p.Tier())
		assert.NotNil(t, p.Embed(context.Background(), "hello"))
	})

	t.Run("none available", func(t *testing.T) {
		p := Negotiate(context.Background(), []Candidate{{Tier: TierLocal, Client: down}}, ProviderConfig{Dimensions: testDims})

		assert.Equal(t, TierUnavailable, p.Tier())
		assert.Nil(t, p.Embed(context.Background(), "hello"))
	})

	t.Run("no candidates", func(t *testing.T) {
		assert.Equal(t, TierUnavailable, Negotiate(context.Background(), nil, ProviderConfig{}).Tier())
	})
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "local", TierLocal.String())
	assert.Equal(t, "remote", TierRemote.String())
	assert.Equal(t, "unavailable", TierUnavailable.String())
	assert.Equal(t, "unavailable", Tier(42).String())
}

func TestMockClient_Deterministic(t *testing.T) {
	c := NewMockClient(testDims)

	a, err := c.CreateEmbedding(context.Background(), "Hello")
	require.NoError(t, err)

	b, err := c.CreateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c.SetFail(true)

	_, err = c.CreateEmbedding(context.Background(), "hello")
	assert.True(t, errors.Is(err, ErrMockFailure))
}
