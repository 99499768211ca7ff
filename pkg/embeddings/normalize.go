// Package embeddings provides math helpers for embedding vectors.
package embeddings

import (
	"math"
)

// NormalizeL2 scales vector to unit length in place. The zero vector is left unchanged.
func NormalizeL2(vector []float32) {
	magnitude := Norm(vector)
	if magnitude == 0 {
		return
	}

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}

// Norm returns the Euclidean length of vector.
func Norm(vector []float32) float64 {
	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	return math.Sqrt(sumSquares)
}

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
// It returns 0 when the lengths differ or either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (na * nb)
}
