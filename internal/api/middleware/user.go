package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/formbricks/feedrank/internal/api/response"
	"github.com/formbricks/feedrank/internal/observability"
)

const (
	userIDHeader    = "X-User-ID"
	maxUserIDLength = 255
)

// UserID requires the X-User-ID header and stores it in the request context, where
// handlers and the log handler read it.
func UserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(userIDHeader))

		switch {
		case id == "":
			response.RespondBadRequest(w, "Missing X-User-ID header")

			return
		case len(id) > maxUserIDLength || strings.ContainsRune(id, 0):
			response.RespondBadRequest(w, "Invalid X-User-ID header")

			return
		}

		ctx := context.WithValue(r.Context(), observability.UserIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
