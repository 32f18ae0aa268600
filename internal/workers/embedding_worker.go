// Package workers provides River job workers for async embedding of reference
// answers and context passages.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"golang.org/x/time/rate"

	"github.com/speakpath/backend/internal/models"
	"github.com/speakpath/backend/internal/observability"
	"github.com/speakpath/backend/internal/service"
)

const embeddingJobTimeout = 30 * time.Second

// EmbeddingClient generates embedding vectors for text.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// AnswerCacheInvalidator drops cached reference-answer lists so the next
// assessment sees the freshly embedded row. May be nil.
type AnswerCacheInvalidator interface {
	Invalidate(questionID uuid.UUID)
}

// answerEmbeddingStore is the minimal repository surface needed by the answer worker.
type answerEmbeddingStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.ReferenceAnswer, error)
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// passageEmbeddingStore is the minimal repository surface needed by the passage worker.
type passageEmbeddingStore interface {
	GetPassage(ctx context.Context, id uuid.UUID) (*models.ContextPassage, error)
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}

// AnswerEmbeddingWorker generates and stores embeddings for reference answers.
type AnswerEmbeddingWorker struct {
	river.WorkerDefaults[service.AnswerEmbeddingArgs]

	store   answerEmbeddingStore
	client  EmbeddingClient
	limiter *rate.Limiter
	cache   AnswerCacheInvalidator
	metrics observability.EmbeddingMetrics
}

// NewAnswerEmbeddingWorker creates the answer worker. The limiter is shared
// with the passage worker so both respect one provider budget. cache and
// metrics may be nil.
func NewAnswerEmbeddingWorker(
	store answerEmbeddingStore,
	client EmbeddingClient,
	limiter *rate.Limiter,
	cache AnswerCacheInvalidator,
	metrics observability.EmbeddingMetrics,
) *AnswerEmbeddingWorker {
	return &AnswerEmbeddingWorker{
		store:   store,
		client:  client,
		limiter: limiter,
		cache:   cache,
		metrics: metrics,
	}
}

// Timeout limits how long a single embedding job can run.
func (w *AnswerEmbeddingWorker) Timeout(*river.Job[service.AnswerEmbeddingArgs]) time.Duration {
	return embeddingJobTimeout
}

// Work loads the answer, generates the embedding, and persists it.
func (w *AnswerEmbeddingWorker) Work(ctx context.Context, job *river.Job[service.AnswerEmbeddingArgs]) error {
	args := job.Args
	start := time.Now()

	answer, err := w.store.Get(ctx, args.ReferenceAnswerID)
	if err != nil {
		w.recordFailure(ctx, "get_row_failed", start)
		slog.Error("embedding: get reference answer failed",
			"reference_answer_id", args.ReferenceAnswerID,
			"error", err,
		)

		return nil // no retry when the row is gone
	}

	embedding, err := w.embed(ctx, answer.AnswerText)
	if err != nil {
		return w.handleEmbedError(ctx, err, job.Attempt >= job.MaxAttempts, start,
			"reference_answer_id", args.ReferenceAnswerID)
	}

	if err := w.store.SetEmbedding(ctx, args.ReferenceAnswerID, embedding); err != nil {
		w.recordFailure(ctx, "update_failed", start)
		slog.Error("embedding: set reference answer embedding failed",
			"reference_answer_id", args.ReferenceAnswerID,
			"error", err,
		)

		return fmt.Errorf("set reference answer embedding: %w", err)
	}

	if w.cache != nil {
		w.cache.Invalidate(answer.QuestionID)
	}

	slog.Info("embedding: reference answer stored",
		"reference_answer_id", args.ReferenceAnswerID,
	)

	if w.metrics != nil {
		w.metrics.RecordEmbeddingOutcome(ctx, "success")
		w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), "success")
	}

	return nil
}

func (w *AnswerEmbeddingWorker) embed(ctx context.Context, text string) ([]float32, error) {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	return w.client.CreateEmbedding(ctx, text)
}

func (w *AnswerEmbeddingWorker) recordFailure(ctx context.Context, reason string, start time.Time) {
	if w.metrics == nil {
		return
	}

	w.metrics.RecordWorkerError(ctx, reason)
	w.metrics.RecordEmbeddingOutcome(ctx, "failed_final")
	w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), "failed_final")
}

func (w *AnswerEmbeddingWorker) handleEmbedError(
	ctx context.Context, err error, isLastAttempt bool, start time.Time, logArgs ...any,
) error {
	if w.metrics != nil {
		w.metrics.RecordWorkerError(ctx, "openai_failed")

		status := "retry"
		if isLastAttempt {
			status = "failed_final"
		}

		w.metrics.RecordEmbeddingOutcome(ctx, status)
		w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), status)
	}

	if isLastAttempt {
		slog.Error("embedding: openai failed (final attempt)", append(logArgs, "error", err)...)

		return nil
	}

	return fmt.Errorf("openai embedding: %w", err)
}

// PassageEmbeddingWorker generates and stores embeddings for context passages.
type PassageEmbeddingWorker struct {
	river.WorkerDefaults[service.PassageEmbeddingArgs]

	store   passageEmbeddingStore
	client  EmbeddingClient
	limiter *rate.Limiter
	metrics observability.EmbeddingMetrics
}

// NewPassageEmbeddingWorker creates the passage worker. metrics may be nil.
func NewPassageEmbeddingWorker(
	store passageEmbeddingStore,
	client EmbeddingClient,
	limiter *rate.Limiter,
	metrics observability.EmbeddingMetrics,
) *PassageEmbeddingWorker {
	return &PassageEmbeddingWorker{
		store:   store,
		client:  client,
		limiter: limiter,
		metrics: metrics,
	}
}

// Timeout limits how long a single embedding job can run.
func (w *PassageEmbeddingWorker) Timeout(*river.Job[service.PassageEmbeddingArgs]) time.Duration {
	return embeddingJobTimeout
}

// Work loads the passage, generates the embedding, and persists it.
func (w *PassageEmbeddingWorker) Work(ctx context.Context, job *river.Job[service.PassageEmbeddingArgs]) error {
	args := job.Args
	start := time.Now()

	passage, err := w.store.GetPassage(ctx, args.PassageID)
	if err != nil {
		w.recordFailure(ctx, "get_row_failed", start)
		slog.Error("embedding: get passage failed",
			"passage_id", args.PassageID,
			"error", err,
		)

		return nil
	}

	embedding, err := w.embed(ctx, passage.Content)
	if err != nil {
		return w.handleEmbedError(ctx, err, job.Attempt >= job.MaxAttempts, start,
			"passage_id", args.PassageID)
	}

	if err := w.store.SetEmbedding(ctx, args.PassageID, embedding); err != nil {
		w.recordFailure(ctx, "update_failed", start)
		slog.Error("embedding: set passage embedding failed",
			"passage_id", args.PassageID,
			"error", err,
		)

		return fmt.Errorf("set passage embedding: %w", err)
	}

	slog.Info("embedding: passage stored",
		"passage_id", args.PassageID,
	)

	if w.metrics != nil {
		w.metrics.RecordEmbeddingOutcome(ctx, "success")
		w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), "success")
	}

	return nil
}

func (w *PassageEmbeddingWorker) embed(ctx context.Context, text string) ([]float32, error) {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	return w.client.CreateEmbedding(ctx, text)
}

func (w *PassageEmbeddingWorker) recordFailure(ctx context.Context, reason string, start time.Time) {
	if w.metrics == nil {
		return
	}

	w.metrics.RecordWorkerError(ctx, reason)
	w.metrics.RecordEmbeddingOutcome(ctx, "failed_final")
	w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), "failed_final")
}

func (w *PassageEmbeddingWorker) handleEmbedError(
	ctx context.Context, err error, isLastAttempt bool, start time.Time, logArgs ...any,
) error {
	if w.metrics != nil {
		w.metrics.RecordWorkerError(ctx, "openai_failed")

		status := "retry"
		if isLastAttempt {
			status = "failed_final"
		}

		w.metrics.RecordEmbeddingOutcome(ctx, status)
		w.metrics.RecordEmbeddingDuration(ctx, time.Since(start), status)
	}

	if isLastAttempt {
		slog.Error("embedding: openai failed (final attempt)", append(logArgs, "error", err)...)

		return nil
	}

	return fmt.Errorf("openai embedding: %w", err)
}
