package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/speakpath/backend/internal/models"
	"github.com/speakpath/backend/internal/observability"
	"github.com/speakpath/backend/pkg/cache"
)

// ErrNoAnswerTexts is returned when a create request carries no non-blank answers.
var ErrNoAnswerTexts = errors.New("at least one non-empty answer text is required")

// ReferenceAnswersStore provides the write and read operations for reference answers.
type ReferenceAnswersStore interface {
	Create(ctx context.Context, questionID uuid.UUID, answerText, model string) (uuid.UUID, error)
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]models.ReferenceAnswer, error)
}

// QuestionUpserter creates or updates a question row during ingestion.
type QuestionUpserter interface {
	Upsert(ctx context.Context, id uuid.UUID, text string) error
}

// AnswersService ingests reference answers: it stores the rows and enqueues
// one embedding job per row. Matching reads rows through the same store.
type AnswersService struct {
	store       ReferenceAnswersStore
	questions   QuestionUpserter
	inserter    EmbeddingJobInserter
	answerCache *cache.LoaderCache[uuid.UUID, []models.ReferenceAnswer]
	metrics     observability.EmbeddingMetrics
	model       string
	logger      *slog.Logger
}

// AnswersServiceParams configures AnswersService. AnswerCache and Metrics may be nil.
type AnswersServiceParams struct {
	Store       ReferenceAnswersStore
	Questions   QuestionUpserter
	Inserter    EmbeddingJobInserter
	AnswerCache *cache.LoaderCache[uuid.UUID, []models.ReferenceAnswer]
	Metrics     observability.EmbeddingMetrics
	Model       string
	Logger      *slog.Logger
}

// NewAnswersService creates an AnswersService.
func NewAnswersService(p AnswersServiceParams) *AnswersService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AnswersService{
		store:       p.Store,
		questions:   p.Questions,
		inserter:    p.Inserter,
		answerCache: p.AnswerCache,
		metrics:     p.Metrics,
		model:       p.Model,
		logger:      logger,
	}
}

// Create stores the answers for a question and enqueues an embedding job for
// each. When questionText is non-empty the question row is upserted first.
// Blank answer texts are skipped; all blank is an error.
func (s *AnswersService) Create(ctx context.Context, questionID uuid.UUID, questionText string, answerTexts []string) ([]uuid.UUID, error) {
	texts := make([]string, 0, len(answerTexts))

	for _, text := range answerTexts {
		if t := strings.TrimSpace(text); t != "" {
			texts = append(texts, t)
		}
	}

	if len(texts) == 0 {
		return nil, ErrNoAnswerTexts
	}

	if questionText = strings.TrimSpace(questionText); questionText != "" {
		if err := s.questions.Upsert(ctx, questionID, questionText); err != nil {
			return nil, fmt.Errorf("upsert question: %w", err)
		}
	}

	ids := make([]uuid.UUID, 0, len(texts))

	for _, text := range texts {
		id, err := s.store.Create(ctx, questionID, text, s.model)
		if err != nil {
			return nil, fmt.Errorf("create reference answer: %w", err)
		}

		_, err = s.inserter.Insert(ctx, AnswerEmbeddingArgs{ReferenceAnswerID: id},
			&river.InsertOpts{Queue: EmbeddingsQueueName})
		if err != nil {
			return nil, fmt.Errorf("enqueue answer embedding: %w", err)
		}

		ids = append(ids, id)
	}

	if s.metrics != nil {
		s.metrics.RecordJobsEnqueued(ctx, int64(len(ids)))
	}

	if s.answerCache != nil {
		s.answerCache.Invalidate(questionID)
	}

	s.logger.Info("reference answers: ingested",
		"question_id", questionID,
		"count", len(ids),
	)

	return ids, nil
}

// ListByQuestion returns the stored reference answers for a question.
func (s *AnswersService) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]models.ReferenceAnswer, error) {
	answers, err := s.store.ListByQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("list reference answers: %w", err)
	}

	return answers, nil
}
