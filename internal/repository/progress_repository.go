package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/speakpath/backend/internal/models"
)

// ProgressRepository handles data access for progress records and coin balances.
type ProgressRepository struct {
	db *pgxpool.Pool
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// CreateRecord persists one completed assessment in the child's history.
func (r *ProgressRepository) CreateRecord(ctx context.Context, rec models.ProgressRecord) (uuid.UUID, error) {
	id := uuid.New()

	_, err := r.db.Exec(ctx, `
		INSERT INTO progress_records (id, profile_id, question_id, transcript, is_correct, similarity_score, matched_answer, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, rec.ProfileID, rec.QuestionID, rec.Transcript, rec.Correct, rec.Similarity, rec.MatchedAnswer, rec.Feedback, time.Now(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert progress record: %w", err)
	}

	return id, nil
}

// ListByProfile returns the profile's assessment history, newest first.
func (r *ProgressRepository) ListByProfile(ctx context.Context, profileID uuid.UUID, limit int) ([]models.ProgressRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, profile_id, question_id, transcript, is_correct, similarity_score, matched_answer, feedback, created_at
		FROM progress_records
		WHERE profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		profileID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list progress records: %w", err)
	}
	defer rows.Close()

	records := make([]models.ProgressRecord, 0)

	for rows.Next() {
		var rec models.ProgressRecord
		err := rows.Scan(&rec.ID, &rec.ProfileID, &rec.QuestionID, &rec.Transcript, &rec.Correct, &rec.Similarity, &rec.MatchedAnswer, &rec.Feedback, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan progress record: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress records: %w", err)
	}

	return records, nil
}

// AddCoins adds amount to the profile's coin balance, creating the balance row
// on first award. Returns the new balance.
func (r *ProgressRepository) AddCoins(ctx context.Context, profileID uuid.UUID, amount int) (int, error) {
	var balance int

	err := r.db.QueryRow(ctx, `
		INSERT INTO coin_balances (profile_id, coins, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile_id) DO UPDATE
		SET coins = coin_balances.coins + EXCLUDED.coins, updated_at = EXCLUDED.updated_at
		RETURNING coins`,
		profileID, amount, time.Now(),
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("add coins: %w", err)
	}

	return balance, nil
}

// GetCoins returns the profile's coin balance, zero if no row exists.
func (r *ProgressRepository) GetCoins(ctx context.Context, profileID uuid.UUID) (int, error) {
	var balance int

	err := r.db.QueryRow(ctx,
		`SELECT COALESCE((SELECT coins FROM coin_balances WHERE profile_id = $1), 0)`,
		profileID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("get coins: %w", err)
	}

	return balance, nil
}
