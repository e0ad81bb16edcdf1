package embeddings

import (
	"sort"

	"github.com/formbricks/feedrank/pkg/embeddings"
)

// Match is one FindSimilar hit: the candidate's position and its cosine similarity to the query.
type Match struct {
	Index int
	Score float64
}

// Similarity returns the cosine similarity of a and b in [-1, 1]. It returns 0 when either
// vector is nil, empty or zero-length, or when their dimensions differ.
func Similarity(a, b []float32) float64 {
	return embeddings.Cosine(a, b)
}

// FindSimilar scores every non-nil candidate against query, keeps those scoring at least threshold,
// and returns up to topK of them, best first. Ties keep candidate order. topK <= 0 means no limit.
func FindSimilar(query []float32, candidates [][]float32, topK int, threshold float64) []Match {
	if len(query) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(candidates))

	for i, c := range candidates {
		if c == nil {
			continue
		}

		score := Similarity(query, c)
		if score < threshold {
			continue
		}

		matches = append(matches, Match{Index: i, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}

	return matches
}
