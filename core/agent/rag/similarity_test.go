package rag

import (
	"math"
	"testing"
)

func TestCosineSimilarityIdentical(t *testing.T) {
	v := []float32{0.5, 0.3, 0.8}

	score := CosineSimilarity(v, v)
	if math.Abs(score-1.0) > 1e-9 {
		t.Errorf("expected similarity 1.0 for identical vectors, got %f", score)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	score := CosineSimilarity(a, b)
	if math.Abs(score) > 1e-9 {
		t.Errorf("expected similarity 0 for orthogonal vectors, got %f", score)
	}
}

func TestCosineSimilarityOpposite(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}

	score := CosineSimilarity(a, b)
	if math.Abs(score+1.0) > 1e-9 {
		t.Errorf("expected similarity -1.0 for opposite vectors, got %f", score)
	}
}

func TestCosineSimilarityDegenerateInputs(t *testing.T) {
	v := []float32{1, 2, 3}

	if score := CosineSimilarity(nil, v); score != 0 {
		t.Errorf("expected 0 for nil vector, got %f", score)
	}
	if score := CosineSimilarity(v, []float32{}); score != 0 {
		t.Errorf("expected 0 for empty vector, got %f", score)
	}
	if score := CosineSimilarity(v, []float32{1, 2}); score != 0 {
		t.Errorf("expected 0 for mismatched lengths, got %f", score)
	}
	if score := CosineSimilarity([]float32{0, 0, 0}, v); score != 0 {
		t.Errorf("expected 0 for zero-norm vector, got %f", score)
	}
}
