package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakpath/backend/internal/models"
	"github.com/speakpath/backend/pkg/cache"
)

func newRetrievalQueryCache(t *testing.T) *cache.LoaderCache[string, []float32] {
	t.Helper()

	c, err := cache.NewLoaderCache[string, []float32](16, func(s string) string { return s })
	require.NoError(t, err)

	return c
}

func TestRetrievalService_Retrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns top-K passages best first", func(t *testing.T) {
		corpus := NewMemoryCorpus()
		docID := uuid.New()
		corpus.Add(models.ContextPassage{ID: uuid.New(), DocumentID: docID, Content: "exact", Embedding: []float32{1, 0, 0}})
		corpus.Add(models.ContextPassage{ID: uuid.New(), DocumentID: docID, Content: "close", Embedding: []float32{1, 1, 0}})
		corpus.Add(models.ContextPassage{ID: uuid.New(), DocumentID: docID, Content: "orthogonal", Embedding: []float32{0, 0, 1}})

		svc := NewRetrievalService(RetrievalServiceParams{
			EmbeddingClient: &mockEmbeddingClient{create: func(_ context.Context, _ string) ([]float32, error) {
				return []float32{1, 0, 0}, nil
			}},
			Store: corpus,
			TopK:  2,
		})

		passages, err := svc.Retrieve(ctx, "how do children learn sounds")
		require.NoError(t, err)

		require.Len(t, passages, 2)
		assert.Equal(t, "exact", passages[0].Content)
		assert.Equal(t, "close", passages[1].Content)
		assert.Greater(t, passages[0].Score, passages[1].Score)
	})

	t.Run("empty corpus yields empty result, not an error", func(t *testing.T) {
		svc := NewRetrievalService(RetrievalServiceParams{
			EmbeddingClient: &mockEmbeddingClient{create: func(_ context.Context, _ string) ([]float32, error) {
				return []float32{1, 0, 0}, nil
			}},
			Store: NewMemoryCorpus(),
			TopK:  5,
		})

		passages, err := svc.Retrieve(ctx, "anything")
		require.NoError(t, err)

		assert.Empty(t, passages)
	})

	t.Run("blank query short-circuits without embedding", func(t *testing.T) {
		called := false
		svc := NewRetrievalService(RetrievalServiceParams{
			EmbeddingClient: &mockEmbeddingClient{create: func(_ context.Context, _ string) ([]float32, error) {
				called = true

				return []float32{1, 0, 0}, nil
			}},
			Store: NewMemoryCorpus(),
			TopK:  5,
		})

		passages, err := svc.Retrieve(ctx, "   ")
		require.NoError(t, err)

		assert.Empty(t, passages)
		assert.False(t, called)
	})

	t.Run("embedding failure surfaces as provider unavailable", func(t *testing.T) {
		svc := NewRetrievalService(RetrievalServiceParams{
			EmbeddingClient: &mockEmbeddingClient{create: func(_ context.Context, _ string) ([]float32, error) {
				return nil, errors.New("upstream timeout")
			}},
			Store: NewMemoryCorpus(),
			TopK:  5,
		})

		_, err := svc.Retrieve(ctx, "anything")

		assert.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("query cache coalesces repeat embeddings", func(t *testing.T) {
		calls := 0
		svc := NewRetrievalService(RetrievalServiceParams{
			EmbeddingClient: &mockEmbeddingClient{create: func(_ context.Context, _ string) ([]float32, error) {
				calls++

				return []float32{1, 0, 0}, nil
			}},
			Store:      NewMemoryCorpus(),
			TopK:       5,
			QueryCache: newRetrievalQueryCache(t),
		})

		_, err := svc.Retrieve(ctx, "repeat query")
		require.NoError(t, err)
		_, err = svc.Retrieve(ctx, "repeat query")
		require.NoError(t, err)

		assert.Equal(t, 1, calls)
	})
}

func TestMemoryCorpus(t *testing.T) {
	ctx := context.Background()

	t.Run("passages without embeddings are ignored by search", func(t *testing.T) {
		corpus := NewMemoryCorpus()
		corpus.Add(models.ContextPassage{ID: uuid.New(), Content: "pending embedding"})
		corpus.Add(models.ContextPassage{ID: uuid.New(), Content: "ready", Embedding: []float32{1, 0}})

		results, err := corpus.NearestByEmbedding(ctx, []float32{1, 0}, 10)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, "ready", results[0].Content)
		assert.Equal(t, 2, corpus.Len())
	})

	t.Run("mismatched stored dimensions fail the search", func(t *testing.T) {
		corpus := NewMemoryCorpus()
		corpus.Add(models.ContextPassage{ID: uuid.New(), Content: "bad dims", Embedding: []float32{1, 0, 0}})

		_, err := corpus.NearestByEmbedding(ctx, []float32{1, 0}, 10)

		assert.Error(t, err)
	})
}
