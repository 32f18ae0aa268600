package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressRecord is one completed assessment, persisted for the child's
// learning history. Written by the handler after the pipeline returns;
// the pipeline itself never persists.
type ProgressRecord struct {
	ID            uuid.UUID `json:"id"`
	ProfileID     uuid.UUID `json:"profile_id"`
	QuestionID    uuid.UUID `json:"question_id"`
	Transcript    string    `json:"transcript"`
	Correct       bool      `json:"is_correct"`
	Similarity    float64   `json:"similarity_score"`
	MatchedAnswer string    `json:"matched_answer"`
	Feedback      string    `json:"feedback"`
	CreatedAt     time.Time `json:"created_at"`
}
