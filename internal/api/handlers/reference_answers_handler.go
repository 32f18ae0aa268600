package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/speakpath/backend/internal/api/response"
	"github.com/speakpath/backend/internal/models"
	"github.com/speakpath/backend/internal/service"
)

// AnswersService ingests and lists reference answers.
type AnswersService interface {
	Create(ctx context.Context, questionID uuid.UUID, questionText string, answerTexts []string) ([]uuid.UUID, error)
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]models.ReferenceAnswer, error)
}

// ReferenceAnswersHandler handles HTTP requests for reference answer ingestion.
type ReferenceAnswersHandler struct {
	service AnswersService
}

// NewReferenceAnswersHandler creates a new reference answers handler.
func NewReferenceAnswersHandler(service AnswersService) *ReferenceAnswersHandler {
	return &ReferenceAnswersHandler{service: service}
}

// CreateAnswersRequest is the body for POST /v1/questions/{id}/reference-answers.
type CreateAnswersRequest struct {
	QuestionText string   `json:"questionText"` //nolint:tagliatelle // API contract
	Answers      []string `json:"answers"`
}

// CreateAnswersResponse returns the IDs of the created rows. Embeddings are
// computed asynchronously.
type CreateAnswersResponse struct {
	IDs []uuid.UUID `json:"ids"`
}

// ReferenceAnswerItem is one answer in the list response. HasEmbedding shows
// whether the async embedding job has completed.
type ReferenceAnswerItem struct {
	ID           uuid.UUID `json:"id"`
	AnswerText   string    `json:"answer_text"`
	Model        string    `json:"model"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListAnswersResponse is the response for the list endpoint.
type ListAnswersResponse struct {
	Answers []ReferenceAnswerItem `json:"answers"`
}

// Create handles POST /v1/questions/{id}/reference-answers.
func (h *ReferenceAnswersHandler) Create(w http.ResponseWriter, r *http.Request) {
	questionID, ok := parseQuestionID(w, r)
	if !ok {
		return
	}

	var req CreateAnswersRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	ids, err := h.service.Create(r.Context(), questionID, req.QuestionText, req.Answers)
	if err != nil {
		if errors.Is(err, service.ErrNoAnswerTexts) {
			response.RespondUnprocessableEntity(w, "at least one non-empty answer is required")

			return
		}

		response.RespondInternalServerError(w, "Failed to create reference answers")

		return
	}

	response.RespondJSON(w, http.StatusCreated, CreateAnswersResponse{IDs: ids})
}

// List handles GET /v1/questions/{id}/reference-answers.
func (h *ReferenceAnswersHandler) List(w http.ResponseWriter, r *http.Request) {
	questionID, ok := parseQuestionID(w, r)
	if !ok {
		return
	}

	answers, err := h.service.ListByQuestion(r.Context(), questionID)
	if err != nil {
		response.RespondInternalServerError(w, "Failed to list reference answers")

		return
	}

	items := make([]ReferenceAnswerItem, len(answers))
	for i := range answers {
		items[i] = ReferenceAnswerItem{
			ID:           answers[i].ID,
			AnswerText:   answers[i].AnswerText,
			Model:        answers[i].Model,
			HasEmbedding: len(answers[i].Embedding) > 0,
			CreatedAt:    answers[i].CreatedAt,
		}
	}

	response.RespondJSON(w, http.StatusOK, ListAnswersResponse{Answers: items})
}

func parseQuestionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		response.RespondBadRequest(w, "Question ID is required")

		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		response.RespondBadRequest(w, "Invalid question ID")

		return uuid.Nil, false
	}

	return id, true
}
