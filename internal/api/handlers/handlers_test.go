package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/formbricks/feedrank/internal/observability"
)

// newUserRequest builds a request as it arrives after middleware.UserID.
func newUserRequest(method, target, body, userID string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")

	return req.WithContext(context.WithValue(req.Context(), observability.UserIDKey, userID))
}
