package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_KEY", "test-api-key")
	t.Setenv("OPENAI_API_KEY", "test-openai-key")
}

func TestLoad(t *testing.T) {
	t.Run("missing API_KEY fails", func(t *testing.T) {
		t.Setenv("API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "x")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API_KEY")
	})

	t.Run("missing OPENAI_API_KEY fails", func(t *testing.T) {
		t.Setenv("API_KEY", "x")
		t.Setenv("OPENAI_API_KEY", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	})

	t.Run("defaults applied", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.InDelta(t, DefaultMatchThreshold, cfg.MatchThreshold, 1e-9)
		assert.Equal(t, DefaultRetrievalTopK, cfg.RetrievalTopK)
		assert.Equal(t, DefaultEmbeddingDims, cfg.EmbeddingDims)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.GenerationModel)
	})

	t.Run("threshold override honored", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("MATCH_THRESHOLD", "0.92")

		cfg, err := Load()
		require.NoError(t, err)
		assert.InDelta(t, 0.92, cfg.MatchThreshold, 1e-9)
	})

	t.Run("threshold outside cosine range rejected", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("MATCH_THRESHOLD", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MATCH_THRESHOLD")
	})

	t.Run("non-positive top K rejected", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("RETRIEVAL_TOP_K", "0")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RETRIEVAL_TOP_K")
	})

	t.Run("invalid int falls back to default", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("RETRIEVAL_TOP_K", "not-a-number")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, DefaultRetrievalTopK, cfg.RetrievalTopK)
	})
}
