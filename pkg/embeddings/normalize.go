// Package embeddings provides vector math shared by the embedding providers and the similarity index.
package embeddings

import (
	"math"
)

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	return math.Sqrt(sum)
}

// NormalizeL2 scales vector to unit length in place. Zero vectors are left unchanged.
func NormalizeL2(vector []float32) {
	magnitude := Norm(vector)
	if magnitude == 0 {
		return
	}

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}

// NormalizedCopy returns a unit-length copy of v, leaving v untouched.
func NormalizedCopy(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	NormalizeL2(out)

	return out
}

// Dot returns the inner product of a and b. Both must have the same length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}

	return sum
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty, zero-length
// or the dimensions differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}

	return Dot(a, b) / (na * nb)
}

// Centroid returns the element-wise mean of the non-empty vectors sharing the first one's
// dimension. It returns nil when there is nothing to average.
func Centroid(vectors [][]float32) []float32 {
	var (
		sum   []float64
		count int
	)

	for _, v := range vectors {
		if len(v) == 0 {
			continue
		}

		if sum == nil {
			sum = make([]float64, len(v))
		}

		if len(v) != len(sum) {
			continue
		}

		for i, x := range v {
			sum[i] += float64(x)
		}

		count++
	}

	if count == 0 {
		return nil
	}

	out := make([]float32, len(sum))
	for i, s := range sum {
		out[i] = float32(s / float64(count))
	}

	return out
}
