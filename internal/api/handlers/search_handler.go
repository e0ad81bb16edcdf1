package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/formbricks/feedrank/internal/api/response"
	"github.com/formbricks/feedrank/internal/api/validation"
	"github.com/formbricks/feedrank/internal/models"
	"github.com/formbricks/feedrank/internal/service"
)

// SearchService defines the interface for semantic search over a user's items.
type SearchService interface {
	Search(ctx context.Context, userID string, req *models.SearchRequest) (*models.SearchResponse, error)
	Stats(userID string) models.IndexStats
	RebuildIndex(ctx context.Context) (int, error)
}

// SearchHandler handles HTTP requests for semantic search and the similarity index.
type SearchHandler struct {
	service SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// RebuildIndexResponse is returned by POST /v1/search/rebuild-index.
type RebuildIndexResponse struct {
	Message      string `json:"message"`
	TotalVectors int    `json:"total_vectors"`
}

// Search handles POST /v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := validation.DecodeJSONBody(r, &req); err != nil {
		response.RespondBadRequest(w, err.Error())

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	resp, err := h.service.Search(r.Context(), userIDFrom(r), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			response.RespondBadRequest(w, "Query cannot be empty")

			return
		}

		slog.WarnContext(r.Context(), "search: failed", "error", err)
		response.RespondServiceError(w, err, "")

		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}

// Stats handles GET /v1/search/stats
func (h *SearchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response.RespondJSON(w, http.StatusOK, h.service.Stats(userIDFrom(r)))
}

// RebuildIndex handles POST /v1/search/rebuild-index
func (h *SearchHandler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.RebuildIndex(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "search: rebuild index failed", "error", err)
		response.RespondInternalServerError(w, "Failed to rebuild index")

		return
	}

	response.RespondJSON(w, http.StatusOK, RebuildIndexResponse{
		Message:      "Vector index rebuilt successfully",
		TotalVectors: n,
	})
}
