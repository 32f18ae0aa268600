package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/speakpath/backend/internal/api/response"
	"github.com/speakpath/backend/internal/models"
	"github.com/speakpath/backend/internal/service"
)

// CorpusService ingests and lists reference documents.
type CorpusService interface {
	IngestDocument(ctx context.Context, name, text string) (uuid.UUID, int, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
}

// DocumentsHandler handles HTTP requests for the context-passage corpus.
type DocumentsHandler struct {
	service CorpusService
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(service CorpusService) *DocumentsHandler {
	return &DocumentsHandler{service: service}
}

// CreateDocumentRequest is the body for POST /v1/documents.
type CreateDocumentRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// CreateDocumentResponse returns the document ID and how many passages were
// stored. Embeddings are computed asynchronously.
type CreateDocumentResponse struct {
	DocumentID uuid.UUID `json:"documentId"` //nolint:tagliatelle // API contract
	Passages   int       `json:"passages"`
}

// ListDocumentsResponse is the response for the list endpoint.
type ListDocumentsResponse struct {
	Documents []models.Document `json:"documents"`
}

// Create handles POST /v1/documents.
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	docID, passages, err := h.service.IngestDocument(r.Context(), req.Name, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyDocumentName):
			response.RespondUnprocessableEntity(w, "name is required")
		case errors.Is(err, service.ErrEmptyDocumentText):
			response.RespondUnprocessableEntity(w, "text is required and must be non-empty")
		case errors.Is(err, service.ErrNoChunks):
			response.RespondUnprocessableEntity(w, "text is too short to produce any passages")
		default:
			response.RespondInternalServerError(w, "Failed to ingest document")
		}

		return
	}

	response.RespondJSON(w, http.StatusCreated, CreateDocumentResponse{
		DocumentID: docID,
		Passages:   passages,
	})
}

// List handles GET /v1/documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListDocuments(r.Context())
	if err != nil {
		response.RespondInternalServerError(w, "Failed to list documents")

		return
	}

	response.RespondJSON(w, http.StatusOK, ListDocumentsResponse{Documents: docs})
}
