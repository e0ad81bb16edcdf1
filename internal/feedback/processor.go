// Package feedback records explicit user reactions to content items and folds them into the
// user's preference profile.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/formbricks/feedrank/internal/apperrors"
	"github.com/formbricks/feedrank/internal/models"
	"github.com/formbricks/feedrank/internal/observability"
)

// defaultValue stands in for a missing feedback value when deciding whether feedback is positive.
const defaultValue = 0.5

// Store persists a feedback row and the profile mutation it causes as one atomic unit.
// Implementations must hold a per-user lock on the profile while mutate runs.
type Store interface {
	ApplyFeedback(ctx context.Context, fb *models.Feedback, mutate func(*models.UserPreferenceProfile) error) error
}

// Input is one feedback submission.
type Input struct {
	UserID       string
	Item         *models.ContentItem
	FeedbackType string
	Value        *float64
	Context      map[string]any
}

// Processor validates feedback and applies the learning rules.
type Processor struct {
	store   Store
	metrics observability.RankingMetrics
	now     func() time.Time
}

// NewProcessor creates a Processor. metrics may be nil.
func NewProcessor(store Store, metrics observability.RankingMetrics) *Processor {
	return &Processor{store: store, metrics: metrics, now: time.Now}
}

// Validate checks the feedback type and value range.
func Validate(feedbackType string, value *float64) error {
	if !models.IsValidFeedbackType(feedbackType) {
		return apperrors.NewInvalidValueError("feedback_type", feedbackType, models.ValidFeedbackTypes())
	}

	if value != nil && (*value < 0 || *value > 1) {
		return apperrors.NewValidationError("feedback_value", "feedback_value must be between 0.0 and 1.0")
	}

	return nil
}

// IsPositive reports whether feedback should teach the profile. A nil value counts as 0.5.
func IsPositive(feedbackType string, value *float64) bool {
	v := defaultValue
	if value != nil {
		v = *value
	}

	return (feedbackType == models.FeedbackLike || feedbackType == models.FeedbackComplete) && v > defaultValue
}

// Apply validates in, stores the feedback row and updates the profile: every submission is added
// to the history, and positive ones also add keywords and the sender to the profile.
func (p *Processor) Apply(ctx context.Context, in Input) (*models.Feedback, error) {
	if err := Validate(in.FeedbackType, in.Value); err != nil {
		return nil, err
	}

	if in.Item == nil {
		return nil, apperrors.NewNotFoundError("content item", "content item not found")
	}

	now := p.now().UTC()

	fbContext := in.Context
	if fbContext == nil {
		fbContext = map[string]any{}
	}

	fb := &models.Feedback{
		ID:            uuid.New(),
		UserID:        in.UserID,
		ContentItemID: in.Item.ID,
		FeedbackType:  in.FeedbackType,
		FeedbackValue: in.Value,
		Context:       fbContext,
		CreatedAt:     now,
	}

	effective := defaultValue
	if in.Value != nil {
		effective = *in.Value
	}

	positive := IsPositive(in.FeedbackType, in.Value)

	err := p.store.ApplyFeedback(ctx, fb, func(profile *models.UserPreferenceProfile) error {
		profile.FeedbackHistory = appendHistory(profile.FeedbackHistory, models.FeedbackHistoryEntry{
			ContentItemID: in.Item.ID,
			FeedbackType:  in.FeedbackType,
			FeedbackValue: &effective,
			Timestamp:     now,
			Source:        string(in.Item.Source),
			Title:         truncateRunes(in.Item.Title, models.MaxHistoryTitleLen),
		})

		if positive {
			learnFromItem(profile, in.Item)
		}

		profile.UpdatedAt = now

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply feedback: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordFeedback(ctx, in.FeedbackType)
	}

	slog.InfoContext(ctx, "feedback recorded",
		"user_id", in.UserID,
		"content_item_id", in.Item.ID,
		"feedback_type", in.FeedbackType,
		"positive", positive,
	)

	return fb, nil
}
