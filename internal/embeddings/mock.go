package embeddings

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/formbricks/feedrank/pkg/embeddings"
)

// ErrMockFailure is returned by MockClient when Fail is set.
var ErrMockFailure = errors.New("mock embedding failure")

// MockClient is a deterministic Client for tests. Vectors are derived from a SHA-256 of the
// lowercased text unless a fixed vector was registered with Set.
type MockClient struct {
	dimensions int
	fail       atomic.Bool
	calls      atomic.Int64

	mu    sync.RWMutex
	fixed map[string][]float32
}

// NewMockClient creates a mock client producing vectors of the given length.
func NewMockClient(dimensions int) *MockClient {
	return &MockClient{dimensions: dimensions, fixed: map[string][]float32{}}
}

// Set pins the vector returned for text.
func (c *MockClient) Set(text string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fixed[strings.ToLower(strings.TrimSpace(text))] = vec
}

// SetFail makes every subsequent call fail (or succeed again).
func (c *MockClient) SetFail(fail bool) { c.fail.Store(fail) }

// Calls returns the number of backend requests served.
func (c *MockClient) Calls() int64 { return c.calls.Load() }

// CreateEmbedding implements Client.
func (c *MockClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	out, err := c.CreateEmbeddings(ctx, []string{input})
	if err != nil {
		return nil, err
	}

	return out[0], nil
}

// CreateEmbeddings implements Client.
func (c *MockClient) CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	c.calls.Add(1)

	if c.fail.Load() {
		return nil, ErrMockFailure
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		out[i] = c.vector(in)
	}

	return out, nil
}

func (c *MockClient) vector(text string) []float32 {
	key := strings.ToLower(strings.TrimSpace(text))

	c.mu.RLock()
	fixed, ok := c.fixed[key]
	c.mu.RUnlock()

	if ok {
		return fixed
	}

	hash := sha256.Sum256([]byte(key))
	vec := make([]float32, c.dimensions)

	for i := range vec {
		vec[i] = float32(hash[i%len(hash)])/127.5 - 1.0
	}

	embeddings.NormalizeL2(vec)

	return vec
}

var _ Client = (*MockClient)(nil)
