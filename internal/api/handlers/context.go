package handlers

import (
	"net/http"

	"github.com/formbricks/feedrank/internal/observability"
)

// userIDFrom returns the caller set by middleware.UserID.
func userIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(observability.UserIDKey).(string)

	return id
}
