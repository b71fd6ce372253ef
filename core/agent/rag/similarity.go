package rag

import "math"

// CosineSimilarity computes the standard dot-product over L2 norms.
// Returns 0 (not an error) when either vector is empty or lengths
// mismatch, so a chunk with a missing or stale embedding simply never
// ranks instead of failing a whole retrieval.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
