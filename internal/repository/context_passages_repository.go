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

// ErrPassageNotFound is returned when no context passage row exists for the given ID.
var ErrPassageNotFound = errors.New("context passage not found")

// ContextPassagesRepository handles data access for the documents and
// context_passages tables, including vector similarity search.
type ContextPassagesRepository struct {
	db *pgxpool.Pool
}

// NewContextPassagesRepository creates a new context passages repository.
func NewContextPassagesRepository(db *pgxpool.Pool) *ContextPassagesRepository {
	return &ContextPassagesRepository{db: db}
}

// CreateDocument inserts a document header row.
func (r *ContextPassagesRepository) CreateDocument(ctx context.Context, name string) (uuid.UUID, error) {
	id := uuid.New()

	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, name, created_at) VALUES ($1, $2, $3)`,
		id, name, time.Now(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert document: %w", err)
	}

	return id, nil
}

// ListDocuments returns all documents with their passage counts, newest first.
func (r *ContextPassagesRepository) ListDocuments(ctx context.Context) ([]models.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, created_at FROM documents ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)

	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}

		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// CreatePassage inserts one chunk of a document without an embedding.
func (r *ContextPassagesRepository) CreatePassage(ctx context.Context, documentID uuid.UUID, position int, content, model string) (uuid.UUID, error) {
	id := uuid.New()

	_, err := r.db.Exec(ctx, `
		INSERT INTO context_passages (id, document_id, position, content, model, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, documentID, position, content, model, time.Now(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert context passage: %w", err)
	}

	return id, nil
}

// GetPassage returns the passage with the given ID, or ErrPassageNotFound.
func (r *ContextPassagesRepository) GetPassage(ctx context.Context, id uuid.UUID) (*models.ContextPassage, error) {
	var (
		p   models.ContextPassage
		vec *pgvector.Vector
	)

	err := r.db.QueryRow(ctx, `
		SELECT id, document_id, position, content, embedding, model, created_at
		FROM context_passages
		WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.DocumentID, &p.Position, &p.Content, &vec, &p.Model, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPassageNotFound
		}

		return nil, fmt.Errorf("get context passage: %w", err)
	}

	if vec != nil {
		p.Embedding = vec.Slice()
	}

	return &p, nil
}

// SetEmbedding stores the computed embedding for a passage.
func (r *ContextPassagesRepository) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE context_passages SET embedding = $2 WHERE id = $1`,
		id, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("set context passage embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrPassageNotFound
	}

	return nil
}

// NearestByEmbedding returns up to limit passages ranked by cosine similarity
// to the query embedding, best first. Passages without an embedding are
// excluded. Score is 1 - cosine distance, so identical directions score 1.
func (r *ContextPassagesRepository) NearestByEmbedding(ctx context.Context, query []float32, limit int) ([]models.PassageWithScore, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, document_id, content, 1 - (embedding <=> $1) AS score
		FROM context_passages
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`,
		pgvector.NewVector(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("nearest passages: %w", err)
	}
	defer rows.Close()

	results := make([]models.PassageWithScore, 0, limit)

	for rows.Next() {
		var p models.PassageWithScore
		if err := rows.Scan(&p.PassageID, &p.DocumentID, &p.Content, &p.Score); err != nil {
			return nil, fmt.Errorf("scan nearest passage: %w", err)
		}

		results = append(results, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nearest passages: %w", err)
	}

	return results, nil
}

// ListPassageIDsMissingEmbedding returns IDs of passages that have no embedding
// yet, oldest first. Used by the backfill command.
func (r *ContextPassagesRepository) ListPassageIDsMissingEmbedding(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id
		FROM context_passages
		WHERE embedding IS NULL
		ORDER BY created_at ASC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list passages missing embedding: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan passage id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passage ids: %w", err)
	}

	return ids, nil
}
