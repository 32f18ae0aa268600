package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/speakpath/backend/internal/models"
)

// ErrReferenceAnswerNotFound is returned when no reference answer row exists
// for the given ID.
var ErrReferenceAnswerNotFound = errors.New("reference answer not found")

// ReferenceAnswersRepository handles data access for the reference_answers table.
type ReferenceAnswersRepository struct {
	db *pgxpool.Pool
}

// NewReferenceAnswersRepository creates a new reference answers repository.
func NewReferenceAnswersRepository(db *pgxpool.Pool) *ReferenceAnswersRepository {
	return &ReferenceAnswersRepository{db: db}
}

// Create inserts a reference answer without an embedding. The embedding is
// filled in later by the async embedding worker.
func (r *ReferenceAnswersRepository) Create(ctx context.Context, questionID uuid.UUID, answerText, model string) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now()

	_, err := r.db.Exec(ctx, `
		INSERT INTO reference_answers (id, question_id, answer_text, model, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)`,
		id, questionID, answerText, model, now,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert reference answer: %w", err)
	}

	return id, nil
}

// Get returns the reference answer with the given ID, or ErrReferenceAnswerNotFound.
func (r *ReferenceAnswersRepository) Get(ctx context.Context, id uuid.UUID) (*models.ReferenceAnswer, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, question_id, answer_text, embedding, model, created_at, updated_at
		FROM reference_answers
		WHERE id = $1`,
		id,
	)

	ans, err := scanReferenceAnswer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReferenceAnswerNotFound
		}

		return nil, fmt.Errorf("get reference answer: %w", err)
	}

	return ans, nil
}

// ListByQuestion returns every reference answer stored for the question,
// including rows whose embedding has not been computed yet. Callers decide
// how to treat embedding-less rows.
func (r *ReferenceAnswersRepository) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]models.ReferenceAnswer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, question_id, answer_text, embedding, model, created_at, updated_at
		FROM reference_answers
		WHERE question_id = $1
		ORDER BY created_at ASC, id ASC`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reference answers: %w", err)
	}
	defer rows.Close()

	answers := make([]models.ReferenceAnswer, 0)

	for rows.Next() {
		ans, err := scanReferenceAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference answer: %w", err)
		}

		answers = append(answers, *ans)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference answers: %w", err)
	}

	return answers, nil
}

// SetEmbedding stores the computed embedding for a reference answer.
func (r *ReferenceAnswersRepository) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE reference_answers
		SET embedding = $2, updated_at = $3
		WHERE id = $1`,
		id, pgvector.NewVector(embedding), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set reference answer embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrReferenceAnswerNotFound
	}

	return nil
}

// ListIDsMissingEmbedding returns IDs of reference answers that have no
// embedding yet, oldest first. Used by the backfill command to re-enqueue
// embedding jobs.
func (r *ReferenceAnswersRepository) ListIDsMissingEmbedding(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id
		FROM reference_answers
		WHERE embedding IS NULL
		ORDER BY created_at ASC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list reference answers missing embedding: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reference answer id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference answer ids: %w", err)
	}

	return ids, nil
}

func scanReferenceAnswer(row pgx.Row) (*models.ReferenceAnswer, error) {
	var (
		ans models.ReferenceAnswer
		vec *pgvector.Vector
	)

	err := row.Scan(&ans.ID, &ans.QuestionID, &ans.AnswerText, &vec, &ans.Model, &ans.CreatedAt, &ans.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if vec != nil {
		ans.Embedding = vec.Slice()
	}

	return &ans, nil
}
