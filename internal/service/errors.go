// Package service implements the assessment pipeline: answer matching,
// context retrieval, feedback generation, and the ingestion-side services.
package service

import (
	"errors"
	"fmt"

	"github.com/speakpath/backend/internal/repository"
)

// Sentinel errors for assessment (used by handlers for status mapping).
var (
	// ErrNoReferenceData means the question has no usable reference answers.
	// Signals missing ingestion, not a transient failure.
	ErrNoReferenceData = errors.New("no reference answers stored for question")
	ErrEmptyTranscript = errors.New("transcript is required and must be non-empty")
	// ErrProviderUnavailable marks failures of the upstream AI provider
	// (embedding or generation). Handlers map it to 502.
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrQuestionNotFound    = repository.ErrQuestionNotFound
)

// providerError wraps err so both ErrProviderUnavailable and the original
// chain stay matchable with errors.Is.
func providerError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrProviderUnavailable, err)
}
