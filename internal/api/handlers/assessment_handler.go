package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/speakpath/backend/internal/api/response"
	"github.com/speakpath/backend/internal/models"
	"github.com/speakpath/backend/internal/service"
)

// AssessmentService runs the assessment pipeline for one transcript.
type AssessmentService interface {
	Assess(ctx context.Context, in service.AssessmentInput) (*models.AssessmentResult, error)
}

// ProgressRecorder persists assessment history and coin awards. Recording
// happens after the pipeline returns; failures are logged, never surfaced.
type ProgressRecorder interface {
	CreateRecord(ctx context.Context, rec models.ProgressRecord) (uuid.UUID, error)
	AddCoins(ctx context.Context, profileID uuid.UUID, amount int) (int, error)
}

// coinsPerCorrectAnswer is the coin award for a correct assessment.
const coinsPerCorrectAnswer = 10

// AssessmentHandler handles HTTP requests for spoken-answer assessments.
type AssessmentHandler struct {
	service  AssessmentService
	progress ProgressRecorder
	logger   *slog.Logger
}

// NewAssessmentHandler creates a new assessment handler. progress may be nil
// (no history persistence).
func NewAssessmentHandler(service AssessmentService, progress ProgressRecorder, logger *slog.Logger) *AssessmentHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AssessmentHandler{service: service, progress: progress, logger: logger}
}

// AssessmentRequest is the body for POST /v1/assessments.
// API contract uses camelCase.
type AssessmentRequest struct {
	QuestionID     uuid.UUID                  `json:"questionId"`   //nolint:tagliatelle // API contract
	QuestionText   string                     `json:"questionText"` //nolint:tagliatelle // API contract
	Transcript     string                     `json:"transcript"`
	ProfileID      *uuid.UUID                 `json:"profileId,omitempty"` //nolint:tagliatelle // API contract
	Pronunciation  models.PronunciationScores `json:"pronunciation"`
	IncludeContext bool                       `json:"includeContext,omitempty"` //nolint:tagliatelle // API contract
}

// Create handles POST /v1/assessments.
func (h *AssessmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AssessmentRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if req.QuestionID == uuid.Nil {
		response.RespondUnprocessableEntity(w, "questionId is required")

		return
	}

	if strings.TrimSpace(req.Transcript) == "" {
		response.RespondUnprocessableEntity(w, "transcript is required and must be non-empty")

		return
	}

	result, err := h.service.Assess(r.Context(), service.AssessmentInput{
		QuestionID:     req.QuestionID,
		QuestionText:   req.QuestionText,
		Transcript:     req.Transcript,
		Pronunciation:  req.Pronunciation,
		IncludeContext: req.IncludeContext,
	})
	if err != nil {
		h.respondAssessError(w, err)

		return
	}

	if h.progress != nil && req.ProfileID != nil {
		h.recordProgress(r.Context(), *req.ProfileID, req.QuestionID, result)
	}

	response.RespondJSON(w, http.StatusOK, result)
}

func (h *AssessmentHandler) respondAssessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyTranscript):
		response.RespondUnprocessableEntity(w, "transcript is required and must be non-empty")
	case errors.Is(err, service.ErrQuestionNotFound):
		response.RespondNotFound(w, "Question not found")
	case errors.Is(err, service.ErrNoReferenceData):
		response.RespondNoReferenceData(w, "No reference answers have been ingested for this question")
	case errors.Is(err, service.ErrProviderUnavailable):
		response.RespondBadGateway(w, "AI provider request failed; retry with backoff")
	default:
		response.RespondInternalServerError(w, "Assessment failed")
	}
}

// recordProgress stores the history row and, for correct answers, the coin
// award. Best effort: the assessment already succeeded.
func (h *AssessmentHandler) recordProgress(ctx context.Context, profileID, questionID uuid.UUID, result *models.AssessmentResult) {
	_, err := h.progress.CreateRecord(ctx, models.ProgressRecord{
		ProfileID:     profileID,
		QuestionID:    questionID,
		Transcript:    result.Transcript,
		Correct:       result.Correct,
		Similarity:    result.Similarity,
		MatchedAnswer: result.MatchedAnswer,
		Feedback:      result.Feedback,
	})
	if err != nil {
		h.logger.Warn("progress: record failed", "error", err, "profile_id", profileID)

		return
	}

	if !result.Correct {
		return
	}

	if _, err := h.progress.AddCoins(ctx, profileID, coinsPerCorrectAnswer); err != nil {
		h.logger.Warn("progress: coin award failed", "error", err, "profile_id", profileID)
	}
}
