package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/formbricks/feedrank/internal/api/response"
	"github.com/formbricks/feedrank/internal/api/validation"
	"github.com/formbricks/feedrank/internal/models"
)

// ProfileService defines the interface for user preference profiles.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.UserProfileResponse, error)
	Update(ctx context.Context, userID string, req *models.UpdateProfileRequest) error
	Reset(ctx context.Context, userID string) error
	Weights(ctx context.Context, userID string) (*models.RankingWeightsResponse, error)
}

// ProfileHandler handles HTTP requests for user profiles and ranking weights
type ProfileHandler struct {
	service ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Get handles GET /v1/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Get(r.Context(), userIDFrom(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "profile: get failed", "error", err)
		response.RespondServiceError(w, err, "")

		return
	}

	response.RespondJSON(w, http.StatusOK, profile)
}

// Update handles PUT /v1/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := validation.DecodeJSONBody(r, &req); err != nil {
		response.RespondBadRequest(w, err.Error())

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	if err := h.service.Update(r.Context(), userIDFrom(r), &req); err != nil {
		slog.WarnContext(r.Context(), "profile: update failed", "error", err)
		response.RespondServiceError(w, err, "")

		return
	}

	response.RespondJSON(w, http.StatusOK, models.FeedbackResponse{
		Success: true,
		Message: "User profile updated successfully",
	})
}

// Reset handles DELETE /v1/profile/reset
func (h *ProfileHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context(), userIDFrom(r)); err != nil {
		slog.ErrorContext(r.Context(), "profile: reset failed", "error", err)
		response.RespondServiceError(w, err, "")

		return
	}

	response.RespondJSON(w, http.StatusOK, models.FeedbackResponse{
		Success: true,
		Message: "User profile reset to defaults",
	})
}

// Weights handles GET /v1/ranking/weights
func (h *ProfileHandler) Weights(w http.ResponseWriter, r *http.Request) {
	weights, err := h.service.Weights(r.Context(), userIDFrom(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "profile: weights failed", "error", err)
		response.RespondServiceError(w, err, "")

		return
	}

	response.RespondJSON(w, http.StatusOK, weights)
}
