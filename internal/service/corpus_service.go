package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/speakpath/backend/internal/ingest"
	"github.com/speakpath/backend/internal/models"
	"github.com/speakpath/backend/internal/observability"
)

// Sentinel errors for document ingestion.
var (
	ErrEmptyDocumentName = errors.New("document name is required")
	ErrEmptyDocumentText = errors.New("document text is required and must be non-empty")
	// ErrNoChunks means the text survived trimming but every chunk fell below
	// the minimum length.
	ErrNoChunks = errors.New("document text produced no chunks")
)

// CorpusStore provides the write operations for documents and passages.
type CorpusStore interface {
	CreateDocument(ctx context.Context, name string) (uuid.UUID, error)
	CreatePassage(ctx context.Context, documentID uuid.UUID, position int, content, model string) (uuid.UUID, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
}

// CorpusService ingests reference documents: chunks the text, stores the
// passages, and enqueues one embedding job per passage.
type CorpusService struct {
	store    CorpusStore
	inserter EmbeddingJobInserter
	chunker  *ingest.Chunker
	metrics  observability.EmbeddingMetrics
	model    string
	logger   *slog.Logger
}

// CorpusServiceParams configures CorpusService. Chunker defaults when nil;
// Metrics may be nil.
type CorpusServiceParams struct {
	Store    CorpusStore
	Inserter EmbeddingJobInserter
	Chunker  *ingest.Chunker
	Metrics  observability.EmbeddingMetrics
	Model    string
	Logger   *slog.Logger
}

// NewCorpusService creates a CorpusService.
func NewCorpusService(p CorpusServiceParams) *CorpusService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	chunker := p.Chunker
	if chunker == nil {
		chunker = ingest.DefaultChunker()
	}

	return &CorpusService{
		store:    p.Store,
		inserter: p.Inserter,
		chunker:  chunker,
		metrics:  p.Metrics,
		model:    p.Model,
		logger:   logger,
	}
}

// IngestDocument chunks text, stores the document and its passages, and
// enqueues embedding jobs. Returns the document ID and the passage count.
func (s *CorpusService) IngestDocument(ctx context.Context, name, text string) (uuid.UUID, int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, 0, ErrEmptyDocumentName
	}

	if strings.TrimSpace(text) == "" {
		return uuid.Nil, 0, ErrEmptyDocumentText
	}

	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		return uuid.Nil, 0, ErrNoChunks
	}

	docID, err := s.store.CreateDocument(ctx, name)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("create document: %w", err)
	}

	for position, chunk := range chunks {
		passageID, err := s.store.CreatePassage(ctx, docID, position, chunk, s.model)
		if err != nil {
			return uuid.Nil, 0, fmt.Errorf("create passage %d: %w", position, err)
		}

		_, err = s.inserter.Insert(ctx, PassageEmbeddingArgs{PassageID: passageID},
			&river.InsertOpts{Queue: EmbeddingsQueueName})
		if err != nil {
			return uuid.Nil, 0, fmt.Errorf("enqueue passage embedding: %w", err)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordJobsEnqueued(ctx, int64(len(chunks)))
	}

	s.logger.Info("corpus: document ingested",
		"document_id", docID,
		"name", name,
		"passages", len(chunks),
	)

	return docID, len(chunks), nil
}

// ListDocuments returns the ingested documents, newest first.
func (s *CorpusService) ListDocuments(ctx context.Context) ([]models.Document, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return docs, nil
}
