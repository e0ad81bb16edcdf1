package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/formbricks/feedrank/internal/api/response"
)

// ConnectorLookup reports whether a connector is configured.
type ConnectorLookup interface {
	GetRegisteredNames() []string
}

// SyncLimiter throttles manual syncs per key.
type SyncLimiter interface {
	Allow(key string) (bool, time.Duration)
}

// FeedSyncEnqueuer schedules a connector sync for one user.
type FeedSyncEnqueuer interface {
	EnqueueFeedSync(ctx context.Context, userID string) error
}

// ConnectorsHandler handles manual connector sync requests
type ConnectorsHandler struct {
	connectors ConnectorLookup
	limiter    SyncLimiter
	enqueuer   FeedSyncEnqueuer
}

// NewConnectorsHandler creates a new connectors handler
func NewConnectorsHandler(connectors ConnectorLookup, limiter SyncLimiter, enqueuer FeedSyncEnqueuer) *ConnectorsHandler {
	return &ConnectorsHandler{connectors: connectors, limiter: limiter, enqueuer: enqueuer}
}

// SyncResponse acknowledges a scheduled sync.
type SyncResponse struct {
	Status    string `json:"status"`
	Connector string `json:"connector"`
	UserID    string `json:"user_id"`
}

// Sync handles POST /v1/connectors/{name}/sync
func (h *ConnectorsHandler) Sync(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !h.registered(name) {
		response.RespondNotFound(w, "Connector not found")

		return
	}

	userID := userIDFrom(r)

	if ok, wait := h.limiter.Allow(name + ":" + userID); !ok {
		response.RespondTooManyRequests(w, wait, "Sync was requested too recently")

		return
	}

	if err := h.enqueuer.EnqueueFeedSync(r.Context(), userID); err != nil {
		slog.ErrorContext(r.Context(), "connectors: enqueue sync failed", "connector", name, "error", err)
		response.RespondInternalServerError(w, "Failed to schedule sync")

		return
	}

	response.RespondJSON(w, http.StatusAccepted, SyncResponse{Status: "queued", Connector: name, UserID: userID})
}

func (h *ConnectorsHandler) registered(name string) bool {
	for _, n := range h.connectors.GetRegisteredNames() {
		if n == name {
			return true
		}
	}

	return false
}
