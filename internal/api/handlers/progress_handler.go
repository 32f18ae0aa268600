package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/speakpath/backend/internal/api/response"
	"github.com/speakpath/backend/internal/models"
)

// ProgressService reads assessment history and coin balances.
type ProgressService interface {
	ListByProfile(ctx context.Context, profileID uuid.UUID, limit int) ([]models.ProgressRecord, error)
	GetCoins(ctx context.Context, profileID uuid.UUID) (int, error)
}

// ProgressHandler handles HTTP requests for a profile's learning history.
type ProgressHandler struct {
	service ProgressService
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(service ProgressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// ProgressResponse is the response for GET /v1/progress/{profileId}.
type ProgressResponse struct {
	Records []models.ProgressRecord `json:"records"`
	Coins   int                     `json:"coins"`
}

const (
	defaultProgressLimit = 50
	maxProgressLimit     = 200
)

// Get handles GET /v1/progress/{profileId}.
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("profileId")

	profileID, err := uuid.Parse(idStr)
	if err != nil {
		response.RespondBadRequest(w, "Invalid profile ID")

		return
	}

	limit := defaultProgressLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = min(n, maxProgressLimit)
		}
	}

	records, err := h.service.ListByProfile(r.Context(), profileID, limit)
	if err != nil {
		response.RespondInternalServerError(w, "Failed to list progress records")

		return
	}

	coins, err := h.service.GetCoins(r.Context(), profileID)
	if err != nil {
		response.RespondInternalServerError(w, "Failed to read coin balance")

		return
	}

	response.RespondJSON(w, http.StatusOK, ProgressResponse{Records: records, Coins: coins})
}
