package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newServer(t *testing.T, dims int) (*httptest.Server, *embeddingRequest) {
	t.Helper()

	var got embeddingRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		data := make([]map[string]any, 0, len(got.Input))
		// Reverse order to check that results are placed by index.
		for i := len(got.Input) - 1; i >= 0; i-- {
			vec := make([]float32, dims)
			vec[0] = float32(i + 1)
			data = append(data, map[string]any{"object": "embedding", "index": i, "embedding": vec})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "model": got.Model, "data": data})
	}))
	t.Cleanup(srv.Close)

	return srv, &got
}

func TestClient_CreateEmbeddings(t *testing.T) {
	srv, got := newServer(t, 4)
	c := NewClient(srv.URL+"/v1", "", 4)

	out, err := c.CreateEmbeddings(context.Background(), []string{"deadline tomorrow", "weekly digest"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 1, out[0][0], 1e-6)
	assert.InDelta(t, 2, out[1][0], 1e-6)
	assert.Equal(t, DefaultModel, got.Model)
}

func TestClient_CreateEmbedding_DimensionMismatch(t *testing.T) {
	srv, _ := newServer(t, 3)
	c := NewClient(srv.URL+"/v1", "all-minilm", 384)

	_, err := c.CreateEmbedding(context.Background(), "hello")
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestClient_RejectsBlankInput(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/v1", "", 384)

	_, err := c.CreateEmbedding(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = c.CreateEmbeddings(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL+"/v1", "missing", 384).CreateEmbedding(context.Background(), "hello")
	require.Error(t, err)
}
