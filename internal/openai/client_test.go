package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), r.URL.Path)

		var req struct {
			Input      []string `json:"input"`
			Model      string   `json:"model"`
			Dimensions int      `json:"dimensions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			vec := make([]float64, dims)
			vec[i%dims] = 1
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": vec}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestClient_CreateEmbeddings(t *testing.T) {
	srv := embeddingServer(t, 4)
	c := NewClient("sk-test", WithBaseURL(srv.URL), WithDimensions(4))

	out, err := c.CreateEmbeddings(context.Background(), []string{"urgent invoice", "team offsite"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float32{1, 0, 0, 0}, out[0])
	assert.Equal(t, []float32{0, 1, 0, 0}, out[1])
}

func TestClient_DimensionMismatch(t *testing.T) {
	srv := embeddingServer(t, 8)
	c := NewClient("sk-test", WithBaseURL(srv.URL), WithDimensions(4))

	_, err := c.CreateEmbedding(context.Background(), "hello")
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestClient_InputValidation(t *testing.T) {
	c := NewClient("sk-test", WithBaseURL("http://127.0.0.1:1"))

	_, err := c.CreateEmbedding(context.Background(), "  ")
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = NewClient("sk-test", WithDimensions(0)).CreateEmbedding(context.Background(), "hello")
	require.ErrorIs(t, err, ErrInvalidDims)
}
