package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is one ingested reference document (e.g. a speech-pathology guideline).
type Document struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ContextPassage is one chunk of a document with its embedding, used for
// retrieval grounding. The corpus is not scoped to any question.
// Embedding is nil until the embedding job for the row has run.
type ContextPassage struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Position   int       `json:"position"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
}

// PassageWithScore is one retrieval hit: a passage and its similarity to the query.
type PassageWithScore struct {
	PassageID  uuid.UUID `json:"passage_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Content    string    `json:"content"`
	Score      float64   `json:"score"`
}
