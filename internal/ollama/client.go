// Package ollama calls a local Ollama server through its OpenAI-compatible /v1 API.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

var (
	// ErrEmptyInput is returned when no non-blank text is passed.
	ErrEmptyInput = errors.New("ollama: input text is empty")
	// ErrCountMismatch is returned when the server returns a different number of vectors than inputs.
	ErrCountMismatch = errors.New("ollama: unexpected number of embeddings")
	// ErrDimensionMismatch is returned when a vector's length differs from the configured dimensions.
	ErrDimensionMismatch = errors.New("ollama: embedding dimension mismatch")
)

const (
	// DefaultBaseURL is Ollama's OpenAI-compatible endpoint on the default port.
	DefaultBaseURL = "http://localhost:11434/v1"
	// DefaultModel is a 384-dimension sentence embedding model.
	DefaultModel = "all-minilm"
)

// Client produces embeddings from a local model.
type Client struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// NewClient creates a client for the server at baseURL. dimensions <= 0 disables the length check.
func NewClient(baseURL, model string, dimensions int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if model == "" {
		model = DefaultModel
	}

	// Ollama ignores the API key but go-openai always sends the header.
	cfg := openai.DefaultConfig("ollama")
	cfg.BaseURL = strings.TrimRight(baseURL, "/")

	return &Client{
		client:     openai.NewClientWithConfig(cfg),
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
	}
}

// CreateEmbedding returns the embedding for a single text.
func (c *Client) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	out, err := c.CreateEmbeddings(ctx, []string{input})
	if err != nil {
		return nil, err
	}

	return out[0], nil
}

// CreateEmbeddings embeds all inputs in one request. Every input must be non-blank.
func (c *Client) CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyInput
	}

	for i, in := range inputs {
		if strings.TrimSpace(in) == "" {
			return nil, fmt.Errorf("%w (index %d)", ErrEmptyInput, i)
		}
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding: %w", err)
	}

	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCountMismatch, len(resp.Data), len(inputs))
	}

	out := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrCountMismatch, d.Index)
		}

		if c.dimensions > 0 && len(d.Embedding) != c.dimensions {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(d.Embedding), c.dimensions)
		}

		out[d.Index] = d.Embedding
	}

	return out, nil
}
