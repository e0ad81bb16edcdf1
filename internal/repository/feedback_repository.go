package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formbricks/feedrank/internal/models"
)

// FeedbackRepository reads the append-only feedback log. Inserts go through
// ProfilesRepository.ApplyFeedback so the row and the profile change commit together.
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// buildFeedbackFilterConditions builds the WHERE clause for a user's feedback rows.
func buildFeedbackFilterConditions(userID string, filters *models.ListFeedbackFilters) (string, []any) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}

	if filters != nil && filters.FeedbackType != nil && *filters.FeedbackType != "" {
		conditions = append(conditions, fmt.Sprintf("feedback_type = $%d", len(args)+1))
		args = append(args, *filters.FeedbackType)
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns a user's feedback, newest first.
func (r *FeedbackRepository) List(
	ctx context.Context, userID string, filters *models.ListFeedbackFilters,
) ([]models.Feedback, error) {
	query := `SELECT id, user_id, content_item_id, feedback_type, feedback_value, context, created_at FROM feedback`

	whereClause, args := buildFeedbackFilterConditions(userID, filters)
	query += whereClause + " ORDER BY created_at DESC"

	if filters != nil && filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)

		args = append(args, filters.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	out := []models.Feedback{}

	for rows.Next() {
		var (
			fb  models.Feedback
			raw []byte
		)

		err := rows.Scan(&fb.ID, &fb.UserID, &fb.ContentItemID, &fb.FeedbackType, &fb.FeedbackValue, &raw, &fb.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}

		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &fb.Context); err != nil {
				return nil, fmt.Errorf("decode feedback context: %w", err)
			}
		}

		out = append(out, fb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return out, nil
}

// Count returns the number of feedback rows for a user matching filters.
func (r *FeedbackRepository) Count(ctx context.Context, userID string, filters *models.ListFeedbackFilters) (int64, error) {
	whereClause, args := buildFeedbackFilterConditions(userID, filters)

	var count int64

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM feedback`+whereClause, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	return count, nil
}

// FeedbackTypesSince returns the types of feedback the user submitted at or after since.
func (r *FeedbackRepository) FeedbackTypesSince(ctx context.Context, userID string, since time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT feedback_type FROM feedback WHERE user_id = $1 AND created_at >= $2`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent feedback: %w", err)
	}
	defer rows.Close()

	var types []string

	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan feedback type: %w", err)
		}

		types = append(types, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent feedback: %w", err)
	}

	return types, nil
}

// DeleteOlderThan removes feedback rows created before cutoff.
func (r *FeedbackRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM feedback WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old feedback: %w", err)
	}

	return tag.RowsAffected(), nil
}
