package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/formbricks/feedrank/internal/api/response"
	"github.com/formbricks/feedrank/internal/embeddings"
)

const healthPingTimeout = 2 * time.Second

// Pinger checks database connectivity. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TierReporter reports the negotiated embedding tier.
type TierReporter interface {
	Tier() embeddings.Tier
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	EmbeddingTier string `json:"embedding_tier"`
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db       Pinger
	embedder TierReporter
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger, embedder TierReporter) *HealthHandler {
	return &HealthHandler{db: db, embedder: embedder}
}

// Check handles GET /health. An unreachable database is reported as 503. A missing embedding
// tier only degrades ranking, so it is reported without failing the check.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		Database:      "ok",
		EmbeddingTier: h.embedder.Tier().String(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Warn("health check: database unreachable", "error", err)

		resp.Status = "unavailable"
		resp.Database = "unreachable"

		response.RespondJSON(w, http.StatusServiceUnavailable, resp)

		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}
