package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/formbricks/feedrank/internal/api/response"
	"github.com/formbricks/feedrank/internal/api/validation"
	"github.com/formbricks/feedrank/internal/apperrors"
	"github.com/formbricks/feedrank/internal/models"
)

// FeedbackService defines the interface for recording and listing feedback.
type FeedbackService interface {
	Submit(ctx context.Context, userID string, req *models.SubmitFeedbackRequest) (*models.Feedback, error)
	History(ctx context.Context, userID string, filters *models.ListFeedbackFilters) (*models.FeedbackHistoryResponse, error)
}

// FeedbackHandler handles HTTP requests for feedback
type FeedbackHandler struct {
	service FeedbackService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(service FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// Submit handles POST /v1/feedback
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitFeedbackRequest
	if err := validation.DecodeJSONBody(r, &req); err != nil {
		response.RespondBadRequest(w, err.Error())

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	_, err := h.service.Submit(r.Context(), userIDFrom(r), &req)
	if err != nil {
		var verr *apperrors.ValidationError

		switch {
		case errors.As(err, &verr):
			response.RespondValidation(w, verr)
		case errors.Is(err, apperrors.ErrNotFound):
			response.RespondNotFound(w, "Content item not found")
		default:
			slog.ErrorContext(r.Context(), "feedback: submit failed",
				"content_item_id", req.ContentItemID, "feedback_type", req.FeedbackType, "error", err)
			response.RespondJSON(w, http.StatusInternalServerError, models.FeedbackResponse{
				Success: false,
				Message: "Failed to record feedback",
			})
		}

		return
	}

	response.RespondJSON(w, http.StatusOK, models.FeedbackResponse{
		Success: true,
		Message: "Feedback recorded successfully",
	})
}

// History handles GET /v1/feedback/history
func (h *FeedbackHandler) History(w http.ResponseWriter, r *http.Request) {
	var filters models.ListFeedbackFilters
	if err := validation.ValidateAndDecodeQueryParams(r, &filters); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	resp, err := h.service.History(r.Context(), userIDFrom(r), &filters)
	if err != nil {
		slog.ErrorContext(r.Context(), "feedback: history failed", "error", err)
		response.RespondServiceError(w, err, "")

		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}
