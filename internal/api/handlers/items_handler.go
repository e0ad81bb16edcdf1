package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/formbricks/feedrank/internal/api/response"
	"github.com/formbricks/feedrank/internal/api/validation"
	"github.com/formbricks/feedrank/internal/models"
)

// ContentItemsService stores pushed content items.
type ContentItemsService interface {
	Create(ctx context.Context, userID string, req *models.CreateContentItemRequest) (*models.SaveResult, error)
}

// ItemsHandler handles HTTP requests for content ingestion
type ItemsHandler struct {
	service ContentItemsService
}

// NewItemsHandler creates a new items handler
func NewItemsHandler(service ContentItemsService) *ItemsHandler {
	return &ItemsHandler{service: service}
}

// Create handles POST /v1/items. A new item is 201; a duplicate (user, source, origin_id) is 200
// with skipped=true.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateContentItemRequest
	if err := validation.DecodeJSONBody(r, &req); err != nil {
		response.RespondBadRequest(w, err.Error())

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	res, err := h.service.Create(r.Context(), userIDFrom(r), &req)
	if err != nil {
		slog.ErrorContext(r.Context(), "items: create failed", "origin_id", req.OriginID, "error", err)
		response.RespondServiceError(w, err, "")

		return
	}

	status := http.StatusCreated
	if res.Skipped {
		status = http.StatusOK
	}

	response.RespondJSON(w, status, res)
}
