package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/formbricks/feedrank/internal/feedback"
	"github.com/formbricks/feedrank/internal/models"
)

const defaultHistoryLimit = 50

// ItemGetter loads one of a user's items.
type ItemGetter interface {
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.ContentItem, error)
}

// FeedbackApplier validates feedback and folds it into the profile.
type FeedbackApplier interface {
	Apply(ctx context.Context, in feedback.Input) (*models.Feedback, error)
}

// FeedbackLister reads the feedback log.
type FeedbackLister interface {
	List(ctx context.Context, userID string, filters *models.ListFeedbackFilters) ([]models.Feedback, error)
}

// FeedbackService handles feedback submission and history.
type FeedbackService struct {
	items     ItemGetter
	processor FeedbackApplier
	log       FeedbackLister
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(items ItemGetter, processor FeedbackApplier, log FeedbackLister) *FeedbackService {
	return &FeedbackService{items: items, processor: processor, log: log}
}

// Submit records feedback on one of the user's items. The type and value are checked before the
// item is looked up, so an invalid type is reported even for an unknown item.
func (s *FeedbackService) Submit(ctx context.Context, userID string, req *models.SubmitFeedbackRequest) (*models.Feedback, error) {
	if err := feedback.Validate(req.FeedbackType, req.FeedbackValue); err != nil {
		return nil, err
	}

	item, err := s.items.GetByID(ctx, userID, req.ContentItemID)
	if err != nil {
		return nil, fmt.Errorf("get content item: %w", err)
	}

	fb, err := s.processor.Apply(ctx, feedback.Input{
		UserID:       userID,
		Item:         item,
		FeedbackType: req.FeedbackType,
		Value:        req.FeedbackValue,
		Context:      req.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("apply feedback: %w", err)
	}

	return fb, nil
}

// History returns the user's feedback, newest first.
func (s *FeedbackService) History(
	ctx context.Context, userID string, filters *models.ListFeedbackFilters,
) (*models.FeedbackHistoryResponse, error) {
	f := models.ListFeedbackFilters{}
	if filters != nil {
		f = *filters
	}

	if f.Limit <= 0 {
		f.Limit = defaultHistoryLimit
	}

	rows, err := s.log.List(ctx, userID, &f)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	return &models.FeedbackHistoryResponse{
		FeedbackHistory: rows,
		TotalCount:      len(rows),
	}, nil
}
