// Package models defines the domain types shared by repositories, services, and handlers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Question is a practice question a child answers by speaking.
// MatchThreshold, when set, overrides the deployment-wide correctness threshold
// for this question (e.g. to loosen matching for harder prompts).
type Question struct {
	ID             uuid.UUID `json:"id"`
	Text           string    `json:"text"`
	MatchThreshold *float64  `json:"match_threshold,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReferenceAnswer is one expected answer (or paraphrase variant) for a question,
// with its precomputed embedding. Written by ingestion, read-only at assessment time.
// Embedding is nil until the embedding job for the row has run.
type ReferenceAnswer struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	AnswerText string    `json:"answer_text"`
	Embedding  []float32 `json:"-"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MatchResult is the answer-matching verdict for one transcript: the best
// reference answer, its cosine similarity, and whether it clears the threshold.
// Ephemeral; computed per request and never persisted as-is.
type MatchResult struct {
	AnswerID   uuid.UUID `json:"answer_id"`
	AnswerText string    `json:"answer_text"`
	Similarity float64   `json:"similarity"`
	Correct    bool      `json:"correct"`
}

// PronunciationScores are the sub-scores produced by the external speech
// assessment service (hundred-mark scale). The pipeline passes them through
// into the feedback prompt; it never computes them.
type PronunciationScores struct {
	Accuracy      float64 `json:"accuracy"`
	Fluency       float64 `json:"fluency"`
	Completeness  float64 `json:"completeness"`
	Pronunciation float64 `json:"pronunciation"`
}

// AssessmentResult is the pipeline's output contract: the transcript echoed
// back, the match verdict, and the cleaned feedback text. Context carries the
// concatenated retrieved passages for debugging and audit only; production
// clients must not rely on it.
type AssessmentResult struct {
	Transcript    string  `json:"transcript"`
	Correct       bool    `json:"is_correct"`
	Similarity    float64 `json:"similarity_score"`
	MatchedAnswer string  `json:"matched_answer"`
	Feedback      string  `json:"feedback"`
	Context       string  `json:"context,omitempty"`
}
