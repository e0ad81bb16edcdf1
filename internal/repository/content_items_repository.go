package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/formbricks/feedrank/internal/apperrors"
	"github.com/formbricks/feedrank/internal/datatypes"
	"github.com/formbricks/feedrank/internal/models"
)

const contentItemColumns = `id, user_id, source, origin_id, title, summary, text, date, priority,
	relevance_score, entities, has_tasks, extracted_tasks, metadata, created_at`

// ContentItemsRepository handles data access for content items.
type ContentItemsRepository struct {
	db *pgxpool.Pool
}

// NewContentItemsRepository creates a new content items repository.
func NewContentItemsRepository(db *pgxpool.Pool) *ContentItemsRepository {
	return &ContentItemsRepository{db: db}
}

// Save inserts an item unless (user_id, source, origin_id) already exists.
// A duplicate is reported as Skipped and leaves the stored row untouched.
func (r *ContentItemsRepository) Save(ctx context.Context, item *models.ContentItem) (*models.SaveResult, error) {
	if item.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate content item id: %w", err)
		}

		item.ID = id
	}

	entities, tasks, metadata, err := encodeItemJSON(item)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO content_items (id, user_id, source, origin_id, title, summary, text, date, priority,
			relevance_score, entities, has_tasks, extracted_tasks, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT ON CONSTRAINT content_items_user_source_origin_key DO NOTHING
		RETURNING created_at
	`

	err = r.db.QueryRow(ctx, query,
		item.ID, item.UserID, string(item.Source), item.OriginID, item.Title, item.Summary, item.Text,
		item.Date, int16(item.Priority), item.RelevanceScore, entities, len(item.ExtractedTasks) > 0, tasks, metadata,
	).Scan(&item.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.SaveResult{Skipped: true}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to save content item: %w", err)
	}

	item.HasTasks = len(item.ExtractedTasks) > 0

	return &models.SaveResult{Item: item}, nil
}

// GetByID retrieves an item owned by userID.
func (r *ContentItemsRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.ContentItem, error) {
	query := `SELECT ` + contentItemColumns + ` FROM content_items WHERE id = $1 AND user_id = $2`

	item, err := scanContentItem(r.db.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("content_item", "content item not found")
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}

	return item, nil
}

// GetForEmbedding loads an item by id regardless of owner, including its stored vector.
func (r *ContentItemsRepository) GetForEmbedding(ctx context.Context, id uuid.UUID) (*models.ContentItem, error) {
	query := `SELECT ` + contentItemColumns + `, embedding FROM content_items WHERE id = $1`

	var emb *pgvector.Vector

	item, err := scanContentItem(r.db.QueryRow(ctx, query, id), &emb)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("content_item", "content item not found")
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}

	if emb != nil {
		item.Embedding = emb.Slice()
	}

	return item, nil
}

// buildItemFilterConditions builds the WHERE clause for a user's items.
func buildItemFilterConditions(userID string, filters *models.ListContentItemsFilters) (string, []any) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}
	argCount := 2

	if filters != nil {
		if filters.Source != nil && *filters.Source != "" {
			conditions = append(conditions, fmt.Sprintf("source = $%d", argCount))
			args = append(args, *filters.Source)
			argCount++
		}

		if filters.Since != nil {
			conditions = append(conditions, fmt.Sprintf("date >= $%d", argCount))
			args = append(args, *filters.Since)
		}
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List retrieves a user's items, newest first.
func (r *ContentItemsRepository) List(
	ctx context.Context, userID string, filters *models.ListContentItemsFilters,
) ([]*models.ContentItem, error) {
	query := `SELECT ` + contentItemColumns + ` FROM content_items`

	whereClause, args := buildItemFilterConditions(userID, filters)
	query += whereClause + " ORDER BY date DESC"

	if filters != nil && filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)

		args = append(args, filters.Limit)
	}

	return r.queryItems(ctx, query, args...)
}

// ListByIDs loads the user's items with the given ids. Missing ids are skipped; order follows ids.
func (r *ContentItemsRepository) ListByIDs(ctx context.Context, userID string, ids []uuid.UUID) ([]*models.ContentItem, error) {
	if len(ids) == 0 {
		return []*models.ContentItem{}, nil
	}

	query := `SELECT ` + contentItemColumns + ` FROM content_items WHERE user_id = $1 AND id = ANY($2)`

	items, err := r.queryItems(ctx, query, userID, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.ContentItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	ordered := make([]*models.ContentItem, 0, len(items))

	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}

	return ordered, nil
}

func (r *ContentItemsRepository) queryItems(ctx context.Context, query string, args ...any) ([]*models.ContentItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list content items: %w", err)
	}
	defer rows.Close()

	items := []*models.ContentItem{}

	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content items: %w", err)
	}

	return items, nil
}

// SetEmbedding stores the vector for an item.
func (r *ContentItemsRepository) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	tag, err := r.db.Exec(ctx, `UPDATE content_items SET embedding = $1 WHERE id = $2`, pgvector.NewVector(embedding), id)
	if err != nil {
		return fmt.Errorf("failed to set content item embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("content_item", "content item not found")
	}

	return nil
}

// ListEmbeddings returns every stored vector with its owner, for rebuilding the similarity index.
func (r *ContentItemsRepository) ListEmbeddings(ctx context.Context) ([]models.ItemEmbedding, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, embedding FROM content_items WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	var out []models.ItemEmbedding

	for rows.Next() {
		var (
			e   models.ItemEmbedding
			vec pgvector.Vector
		)

		if err := rows.Scan(&e.ItemID, &e.UserID, &vec); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}

		e.Embedding = vec.Slice()
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embeddings: %w", err)
	}

	return out, nil
}

// ListMissingEmbeddings returns ids of items that have no vector yet, oldest first.
func (r *ContentItemsRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]uuid.UUID, error) {
	query := `SELECT id FROM content_items WHERE embedding IS NULL ORDER BY created_at`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"

		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items missing embeddings: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items missing embeddings: %w", err)
	}

	return ids, nil
}

// DeleteOlderThan removes items created before cutoff and returns how many were deleted.
func (r *ContentItemsRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM content_items WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old content items: %w", err)
	}

	return tag.RowsAffected(), nil
}

// encodeItemJSON marshals the JSONB columns. Nil slices and maps are written as empty values.
func encodeItemJSON(item *models.ContentItem) (entities, tasks, metadata []byte, err error) {
	ents := item.Entities
	if ents == nil {
		ents = []string{}
	}

	ts := item.ExtractedTasks
	if ts == nil {
		ts = []models.Task{}
	}

	meta := item.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	if entities, err = json.Marshal(ents); err != nil {
		return nil, nil, nil, fmt.Errorf("encode entities: %w", err)
	}

	if tasks, err = json.Marshal(ts); err != nil {
		return nil, nil, nil, fmt.Errorf("encode extracted tasks: %w", err)
	}

	if metadata, err = json.Marshal(meta); err != nil {
		return nil, nil, nil, fmt.Errorf("encode metadata: %w", err)
	}

	return entities, tasks, metadata, nil
}

// scanContentItem scans contentItemColumns followed by any extra destinations.
func scanContentItem(row pgx.Row, extra ...any) (*models.ContentItem, error) {
	var (
		item                      models.ContentItem
		source                    string
		priority                  int16
		entities, tasks, metadata []byte
	)

	dest := []any{
		&item.ID, &item.UserID, &source, &item.OriginID, &item.Title, &item.Summary, &item.Text,
		&item.Date, &priority, &item.RelevanceScore, &entities, &item.HasTasks, &tasks, &metadata,
		&item.CreatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	item.Source = datatypes.Source(source)

	p, err := datatypes.PriorityFromLevel(priority)
	if err != nil {
		return nil, err
	}

	item.Priority = p

	if err := decodeItemJSON(&item, entities, tasks, metadata); err != nil {
		return nil, err
	}

	return &item, nil
}

func decodeItemJSON(item *models.ContentItem, entities, tasks, metadata []byte) error {
	item.Entities = []string{}
	item.ExtractedTasks = []models.Task{}

	if len(entities) > 0 {
		if err := json.Unmarshal(entities, &item.Entities); err != nil {
			return fmt.Errorf("decode entities: %w", err)
		}
	}

	if len(tasks) > 0 {
		if err := json.Unmarshal(tasks, &item.ExtractedTasks); err != nil {
			return fmt.Errorf("decode extracted tasks: %w", err)
		}
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
			return fmt.Errorf("decode metadata: %w", err)
		}
	}

	return nil
}
