package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback types accepted from clients.
const (
	FeedbackLike     = "like"
	FeedbackDislike  = "dislike"
	FeedbackComplete = "complete"
	FeedbackSnooze   = "snooze"
	FeedbackDismiss  = "dismiss"
)

// ValidFeedbackTypes returns the accepted feedback types in display order.
func ValidFeedbackTypes() []string {
	return []string{FeedbackLike, FeedbackDislike, FeedbackComplete, FeedbackSnooze, FeedbackDismiss}
}

// IsValidFeedbackType reports whether t is an accepted feedback type.
func IsValidFeedbackType(t string) bool {
	switch t {
	case FeedbackLike, FeedbackDislike, FeedbackComplete, FeedbackSnooze, FeedbackDismiss:
		return true
	default:
		return false
	}
}

// Feedback is one append-only feedback log row.
type Feedback struct {
	ID            uuid.UUID      `json:"id"`
	UserID        string         `json:"user_id"`
	ContentItemID uuid.UUID      `json:"content_item_id"`
	FeedbackType  string         `json:"feedback_type"`
	FeedbackValue *float64       `json:"feedback_value,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// SubmitFeedbackRequest is the body for POST /v1/feedback. feedback_type is checked by the
// handler so the error can list the valid values.
type SubmitFeedbackRequest struct {
	ContentItemID uuid.UUID      `json:"content_item_id" validate:"required"`
	FeedbackType  string         `json:"feedback_type"`
	FeedbackValue *float64       `json:"feedback_value,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
}

// FeedbackResponse is the {success, message} envelope used by feedback and profile mutations.
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListFeedbackFilters are the query parameters for GET /v1/feedback/history.
type ListFeedbackFilters struct {
	FeedbackType *string `form:"feedback_type" validate:"omitempty,oneof=like dislike complete snooze dismiss"`
	Limit        int     `form:"limit" validate:"omitempty,min=1,max=100"`
}

// FeedbackHistoryResponse is returned by GET /v1/feedback/history.
type FeedbackHistoryResponse struct {
	FeedbackHistory []Feedback `json:"feedback_history"`
	TotalCount      int        `json:"total_count"`
}
