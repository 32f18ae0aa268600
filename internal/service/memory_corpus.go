package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/speakpath/backend/internal/models"
	"github.com/speakpath/backend/pkg/vector"
)

// MemoryCorpus is an in-process ContextPassageStore backed by a slice. Used by
// small deployments without Postgres and by the ingestion tools for dry runs.
// Passages without an embedding are ignored by search.
type MemoryCorpus struct {
	mu       sync.RWMutex
	passages []models.ContextPassage
}

// NewMemoryCorpus creates an empty in-memory corpus.
func NewMemoryCorpus() *MemoryCorpus {
	return &MemoryCorpus{}
}

// Add appends a passage to the corpus.
func (m *MemoryCorpus) Add(passage models.ContextPassage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.passages = append(m.passages, passage)
}

// Len returns the number of passages, embedded or not.
func (m *MemoryCorpus) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.passages)
}

// NearestByEmbedding ranks all embedded passages against the query and returns
// the top limit, best first. An empty corpus returns an empty slice.
func (m *MemoryCorpus) NearestByEmbedding(ctx context.Context, query []float32, limit int) ([]models.PassageWithScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	candidates := make([]vector.Candidate, 0, len(m.passages))
	byID := make(map[string]models.ContextPassage, len(m.passages))

	for _, p := range m.passages {
		if p.Embedding == nil {
			continue
		}

		id := p.ID.String()
		candidates = append(candidates, vector.Candidate{ID: id, Vector: p.Embedding})
		byID[id] = p
	}

	ranked, err := vector.Rank(query, candidates)
	if err != nil {
		return nil, fmt.Errorf("rank passages: %w", err)
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]models.PassageWithScore, 0, len(ranked))

	for _, r := range ranked {
		p := byID[r.ID]
		results = append(results, models.PassageWithScore{
			PassageID:  uuid.MustParse(r.ID),
			DocumentID: p.DocumentID,
			Content:    p.Content,
			Score:      r.Similarity,
		})
	}

	return results, nil
}

var _ ContextPassageStore = (*MemoryCorpus)(nil)
