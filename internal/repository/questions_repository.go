// Package repository handles data access for questions, reference answers,
// the context-passage corpus, and progress records.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/speakpath/backend/internal/models"
)

// ErrQuestionNotFound is returned when no question row exists for the given ID.
var ErrQuestionNotFound = errors.New("question not found")

// QuestionsRepository handles data access for the questions table.
type QuestionsRepository struct {
	db *pgxpool.Pool
}

// NewQuestionsRepository creates a new questions repository.
func NewQuestionsRepository(db *pgxpool.Pool) *QuestionsRepository {
	return &QuestionsRepository{db: db}
}

// Get returns the question with the given ID, or ErrQuestionNotFound.
func (r *QuestionsRepository) Get(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	var q models.Question

	err := r.db.QueryRow(ctx,
		`SELECT id, text, match_threshold, created_at FROM questions WHERE id = $1`,
		id,
	).Scan(&q.ID, &q.Text, &q.MatchThreshold, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}

		return nil, fmt.Errorf("get question: %w", err)
	}

	return &q, nil
}

// Upsert inserts the question or updates its text. Used by answer ingestion so
// re-running an ingest file is safe.
func (r *QuestionsRepository) Upsert(ctx context.Context, id uuid.UUID, text string) error {
	now := time.Now()

	_, err := r.db.Exec(ctx, `
		INSERT INTO questions (id, text, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text`,
		id, text, now,
	)
	if err != nil {
		return fmt.Errorf("upsert question: %w", err)
	}

	return nil
}
