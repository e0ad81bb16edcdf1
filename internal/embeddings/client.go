// Package embeddings turns text into vectors through whichever backend was negotiated at startup,
// and provides the similarity helpers used by ranking and search.
package embeddings

import "context"

// Client is implemented by the local and remote embedding backends.
type Client interface {
	// CreateEmbedding returns the vector for one non-blank text.
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
	// CreateEmbeddings returns one vector per input, in input order.
	CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)
}

// Tier identifies which backend serves embeddings for the life of the process.
type Tier int

const (
	TierUnavailable Tier = iota
	TierLocal
	TierRemote
)

func (t Tier) String() string {
	switch t {
	case TierLocal:
		return "local"
	case TierRemote:
		return "remote"
	default:
		return "unavailable"
	}
}
