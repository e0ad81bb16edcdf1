// Package response writes JSON bodies and RFC 7807 problem details.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/formbricks/feedrank/internal/apperrors"
)

// ErrorDetail represents a single error detail in RFC 7807 Problem Details
type ErrorDetail struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// ProblemDetails represents an RFC 7807 Problem Details error response
type ProblemDetails struct {
	Type     string        `json:"type,omitempty"`
	Title    string        `json:"title"`
	Status   int           `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Instance string        `json:"instance,omitempty"`
	Allowed  []string      `json:"allowed,omitempty"`
	Errors   []ErrorDetail `json:"errors,omitempty"`
}

// RespondProblem writes problem as application/problem+json.
func RespondProblem(w http.ResponseWriter, problem ProblemDetails) {
	if problem.Type == "" {
		problem.Type = "about:blank"
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// RespondError writes an RFC 7807 Problem Details error response
func RespondError(w http.ResponseWriter, statusCode int, title string, detail string) {
	RespondProblem(w, ProblemDetails{Title: title, Status: statusCode, Detail: detail})
}

// RespondBadRequest writes a 400 Bad Request error response
func RespondBadRequest(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusBadRequest, "Bad Request", detail)
}

// RespondUnauthorized writes a 401 Unauthorized error response
func RespondUnauthorized(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusUnauthorized, "Unauthorized", detail)
}

// RespondNotFound writes a 404 Not Found error response
func RespondNotFound(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusNotFound, "Not Found", detail)
}

// RespondTooManyRequests writes a 429 with a Retry-After header rounded up to whole seconds.
func RespondTooManyRequests(w http.ResponseWriter, retryAfter time.Duration, detail string) {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(secs))
	RespondError(w, http.StatusTooManyRequests, "Too Many Requests", detail)
}

// RespondInternalServerError writes a 500 Internal Server Error response
func RespondInternalServerError(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

// RespondServiceUnavailable writes a 503 Service Unavailable response
func RespondServiceUnavailable(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusServiceUnavailable, "Service Unavailable", detail)
}

// RespondValidation writes a 400 for a ValidationError, including the accepted values.
func RespondValidation(w http.ResponseWriter, verr *apperrors.ValidationError) {
	problem := ProblemDetails{
		Title:   "Validation Error",
		Status:  http.StatusBadRequest,
		Detail:  verr.Error(),
		Allowed: verr.Allowed,
	}

	if verr.Field != "" {
		problem.Errors = []ErrorDetail{{Location: verr.Field, Message: verr.Message}}
	}

	RespondProblem(w, problem)
}

// RespondServiceError maps typed service errors to their status codes. Anything else is a 500
// with a generic detail; the caller is expected to have logged the cause.
func RespondServiceError(w http.ResponseWriter, err error, notFoundDetail string) {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		RespondValidation(w, verr)

		return
	}

	var uerr *apperrors.UnavailableError
	if errors.As(err, &uerr) {
		RespondServiceUnavailable(w, uerr.Error())

		return
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		RespondNotFound(w, notFoundDetail)

		return
	}

	RespondInternalServerError(w, "An unexpected error occurred")
}

// RespondJSON writes a JSON response directly without wrapping
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		RespondInternalServerError(w, "Failed to encode response")

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}
