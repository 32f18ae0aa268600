// Package vector provides pure similarity math over embedding vectors:
// cosine similarity, candidate ranking, and L2 normalization.
package vector

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch is returned when two vectors of different lengths are compared.
// This indicates embedding-model drift (e.g. mixed ingestion runs) and is not retryable.
var ErrDimensionMismatch = errors.New("vector: dimension mismatch")

// Candidate is one (id, vector) pair to rank against a query.
type Candidate struct {
	ID     string
	Vector []float32
}

// Ranked is one ranking result: the candidate ID and its cosine similarity to the query.
type Ranked struct {
	ID         string
	Similarity float64
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Returns ErrDimensionMismatch when lengths differ, and 0 when either vector has zero magnitude.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Rank orders candidates by descending cosine similarity to query.
// The sort is stable: candidates with equal similarity keep their input order.
// An empty candidate set returns an empty (non-nil) result and no error; callers
// decide whether "no candidates" is meaningful. Any dimension mismatch fails the
// whole call rather than silently skipping the offending candidate.
func Rank(query []float32, candidates []Candidate) ([]Ranked, error) {
	ranked := make([]Ranked, 0, len(candidates))

	for _, c := range candidates {
		sim, err := Cosine(query, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.ID, err)
		}

		ranked = append(ranked, Ranked{ID: c.ID, Similarity: sim})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})

	return ranked, nil
}

// NormalizeL2 scales vector in-place to unit length. A zero vector is left unchanged.
// Normalized vectors let cosine similarity degrade to a plain dot product downstream.
func NormalizeL2(vector []float32) {
	var sumSquares float64

	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	if sumSquares == 0 {
		return
	}

	magnitude := math.Sqrt(sumSquares)

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}
