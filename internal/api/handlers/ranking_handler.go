package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/formbricks/feedrank/internal/api/response"
	"github.com/formbricks/feedrank/internal/api/validation"
	"github.com/formbricks/feedrank/internal/models"
)

// FeedService builds a user's ranked feed.
type FeedService interface {
	Feed(ctx context.Context, userID string, q *models.FeedQuery) (*models.FeedResponse, error)
}

// RerankEnqueuer schedules a background rerank.
type RerankEnqueuer interface {
	EnqueueRerank(ctx context.Context, userID string) error
}

// RankingHandler handles HTTP requests for the ranked feed
type RankingHandler struct {
	feed     FeedService
	enqueuer RerankEnqueuer
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(feed FeedService, enqueuer RerankEnqueuer) *RankingHandler {
	return &RankingHandler{feed: feed, enqueuer: enqueuer}
}

// QueuedResponse acknowledges work handed to a background job.
type QueuedResponse struct {
	Status string `json:"status"`
	UserID string `json:"user_id"`
}

// Feed handles GET /v1/feed
func (h *RankingHandler) Feed(w http.ResponseWriter, r *http.Request) {
	var q models.FeedQuery
	if err := validation.ValidateAndDecodeQueryParams(r, &q); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	resp, err := h.feed.Feed(r.Context(), userIDFrom(r), &q)
	if err != nil {
		slog.ErrorContext(r.Context(), "feed: failed", "error", err)
		response.RespondServiceError(w, err, "")

		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}

// Rerank handles POST /v1/ranking/rerank
func (h *RankingHandler) Rerank(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	if err := h.enqueuer.EnqueueRerank(r.Context(), userID); err != nil {
		slog.ErrorContext(r.Context(), "rerank: enqueue failed", "error", err)
		response.RespondInternalServerError(w, "Failed to schedule rerank")

		return
	}

	response.RespondJSON(w, http.StatusAccepted, QueuedResponse{Status: "queued", UserID: userID})
}
