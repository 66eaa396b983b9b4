// Package vector provides the numeric routines used to compare embeddings.
package vector

import (
	"fmt"
	"math"
)

// Epsilon is added to the cosine denominator so zero-norm vectors score 0
// instead of dividing by zero. It biases similarity slightly downward for
// near-zero norms, which only occur for degenerate embeddings.
const Epsilon = 1e-12

// DimensionMismatchError reports two vectors of different length.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: got %d, expected %d", e.Got, e.Want)
}

// Norm returns the Euclidean norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of a and b. Lengths must match.
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{Got: len(a), Want: len(b)}
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot, nil
}

// CosineSimilarity returns dot(a,b) / (normA*normB + Epsilon) using the
// precomputed norms of a and b.
func CosineSimilarity(a, b []float32, normA, normB float64) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}
	return dot / (normA*normB + Epsilon), nil
}

// IsFinite reports whether every element of v is a finite number.
func IsFinite(v []float32) bool {
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
