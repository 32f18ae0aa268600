package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/speakpath/backend/internal/models"
	"github.com/speakpath/backend/internal/observability"
	"github.com/speakpath/backend/pkg/cache"
)

const retrievalQueryEmbeddingCacheName = "retrieval_query_embedding"

// ContextPassageStore provides similarity search over the passage corpus.
// Implemented by the pgvector-backed repository and by MemoryCorpus.
type ContextPassageStore interface {
	NearestByEmbedding(ctx context.Context, query []float32, limit int) ([]models.PassageWithScore, error)
}

// RetrievalService embeds a query and returns the top-K most similar context
// passages. An empty corpus yields an empty result, not an error.
type RetrievalService struct {
	embeddingClient EmbeddingClient
	store           ContextPassageStore
	topK            int
	queryCache      *cache.LoaderCache[string, []float32]
	cacheMetrics    observability.CacheMetrics
	logger          *slog.Logger
}

// RetrievalServiceParams configures RetrievalService. QueryCache and
// CacheMetrics may be nil (no caching).
type RetrievalServiceParams struct {
	EmbeddingClient EmbeddingClient
	Store           ContextPassageStore
	TopK            int
	QueryCache      *cache.LoaderCache[string, []float32]
	CacheMetrics    observability.CacheMetrics
	Logger          *slog.Logger
}

// NewRetrievalService creates a RetrievalService.
func NewRetrievalService(p RetrievalServiceParams) *RetrievalService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RetrievalService{
		embeddingClient: p.EmbeddingClient,
		store:           p.Store,
		topK:            p.TopK,
		queryCache:      p.QueryCache,
		cacheMetrics:    p.CacheMetrics,
		logger:          logger,
	}
}

// Retrieve returns up to TopK passages most similar to the query, best first.
// A blank query or an empty corpus returns an empty slice and no error.
func (s *RetrievalService) Retrieve(ctx context.Context, query string) ([]models.PassageWithScore, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.PassageWithScore{}, nil
	}

	embedding, err := s.queryEmbedding(ctx, query)
	if err != nil {
		s.logger.Error("retrieval: create embedding failed", "error", err, "topK", s.topK)

		return nil, providerError("create query embedding", err)
	}

	passages, err := s.store.NearestByEmbedding(ctx, embedding, s.topK)
	if err != nil {
		s.logger.Error("retrieval: nearest passages failed", "error", err)

		return nil, fmt.Errorf("nearest passages: %w", err)
	}

	return passages, nil
}

func (s *RetrievalService) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	if s.queryCache == nil {
		return s.embeddingClient.CreateEmbedding(ctx, query)
	}

	vec, hit, err := s.queryCache.GetWithStats(ctx, query, func(ctx context.Context, q string) ([]float32, error) {
		return s.embeddingClient.CreateEmbedding(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	if s.cacheMetrics != nil {
		if hit {
			s.cacheMetrics.RecordHit(ctx, retrievalQueryEmbeddingCacheName)
		} else {
			s.cacheMetrics.RecordMiss(ctx, retrievalQueryEmbeddingCacheName)
		}
	}

	return vec, nil
}
