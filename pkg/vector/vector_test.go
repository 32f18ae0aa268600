package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	t.Run("identical vectors have similarity 1", func(t *testing.T) {
		a := []float32{0.3, -0.5, 0.8, 0.1}
		sim, err := Cosine(a, a)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-6)
	})

	t.Run("opposite vectors have similarity -1", func(t *testing.T) {
		a := []float32{0.3, -0.5, 0.8, 0.1}
		b := []float32{-0.3, 0.5, -0.8, -0.1}
		sim, err := Cosine(a, b)
		require.NoError(t, err)
		assert.InDelta(t, -1.0, sim, 1e-6)
	})

	t.Run("orthogonal vectors have similarity 0", func(t *testing.T) {
		sim, err := Cosine([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, sim, 1e-6)
	})

	t.Run("magnitude does not affect similarity", func(t *testing.T) {
		sim, err := Cosine([]float32{1, 2, 3}, []float32{10, 20, 30})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-6)
	})

	t.Run("dimension mismatch returns ErrDimensionMismatch", func(t *testing.T) {
		_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("zero vector yields similarity 0", func(t *testing.T) {
		sim, err := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, sim, 1e-6)
	})
}

func TestRank(t *testing.T) {
	query := []float32{1, 0}

	t.Run("orders descending by similarity", func(t *testing.T) {
		ranked, err := Rank(query, []Candidate{
			{ID: "low", Vector: []float32{0, 1}},
			{ID: "high", Vector: []float32{1, 0.01}},
			{ID: "mid", Vector: []float32{1, 1}},
		})
		require.NoError(t, err)
		require.Len(t, ranked, 3)
		assert.Equal(t, "high", ranked[0].ID)
		assert.Equal(t, "mid", ranked[1].ID)
		assert.Equal(t, "low", ranked[2].ID)
		assert.True(t, ranked[0].Similarity >= ranked[1].Similarity)
		assert.True(t, ranked[1].Similarity >= ranked[2].Similarity)
	})

	t.Run("ties preserve insertion order", func(t *testing.T) {
		ranked, err := Rank(query, []Candidate{
			{ID: "first", Vector: []float32{2, 0}},
			{ID: "second", Vector: []float32{5, 0}},
			{ID: "third", Vector: []float32{1, 0}},
		})
		require.NoError(t, err)
		require.Len(t, ranked, 3)
		assert.Equal(t, "first", ranked[0].ID)
		assert.Equal(t, "second", ranked[1].ID)
		assert.Equal(t, "third", ranked[2].ID)
	})

	t.Run("empty candidates returns empty result, not error", func(t *testing.T) {
		ranked, err := Rank(query, nil)
		require.NoError(t, err)
		assert.NotNil(t, ranked)
		assert.Empty(t, ranked)
	})

	t.Run("mismatched candidate fails the whole call", func(t *testing.T) {
		_, err := Rank(query, []Candidate{
			{ID: "ok", Vector: []float32{1, 0}},
			{ID: "bad", Vector: []float32{1, 0, 0}},
		})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestNormalizeL2(t *testing.T) {
	t.Run("normalizes to unit length", func(t *testing.T) {
		v := []float32{3, 4}
		NormalizeL2(v)
		assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
		assert.InDelta(t, 0.8, float64(v[1]), 1e-6)
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		v := []float32{0, 0, 0}
		NormalizeL2(v)
		assert.Equal(t, []float32{0, 0, 0}, v)
	})
}
