package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/formbricks/feedrank/internal/datatypes"
)

// Metadata keys connectors use for sender identity.
const (
	MetadataSender      = "sender"
	MetadataSenderEmail = "sender_email"
)

// Task is an action extracted from a content item. DueDate is kept as the raw string the
// connector produced; consumers parse it and ignore values they cannot read.
type Task struct {
	Verb    string `json:"verb"`
	DueDate string `json:"due_date,omitempty"`
	Text    string `json:"text"`
}

// ContentItem is one normalized unit of ingested content (email, post, article, message).
type ContentItem struct {
	ID             uuid.UUID          `json:"id"`
	UserID         string             `json:"user_id"`
	Source         datatypes.Source   `json:"source"`
	OriginID       string             `json:"origin_id"`
	Title          string             `json:"title"`
	Summary        string             `json:"summary"`
	Text           string             `json:"text,omitempty"`
	Date           time.Time          `json:"date"`
	Priority       datatypes.Priority `json:"priority"`
	RelevanceScore float64            `json:"relevance_score"`
	Entities       []string           `json:"entities"`
	HasTasks       bool               `json:"has_tasks"`
	ExtractedTasks []Task             `json:"extracted_tasks"`
	Metadata       map[string]any     `json:"metadata,omitempty"`
	Embedding      []float32          `json:"-"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Sender returns the sender display name from metadata, or "".
func (c *ContentItem) Sender() string {
	return c.metadataString(MetadataSender)
}

// SenderEmail returns the sender email from metadata, or "".
func (c *ContentItem) SenderEmail() string {
	return c.metadataString(MetadataSenderEmail)
}

func (c *ContentItem) metadataString(key string) string {
	if c.Metadata == nil {
		return ""
	}

	s, _ := c.Metadata[key].(string)

	return s
}

// EmbeddingText is the text embedded for an item: title and summary joined by a space.
func (c *ContentItem) EmbeddingText() string {
	if c.Summary == "" {
		return c.Title
	}

	return c.Title + " " + c.Summary
}

// SaveResult reports the outcome of a deduplicating save.
// Skipped is true when (user_id, source, origin_id) already existed; Item is then nil.
type SaveResult struct {
	Item    *ContentItem `json:"item,omitempty"`
	Skipped bool         `json:"skipped"`
}

// ItemEmbedding is a persisted item vector with its owner, used to (re)build the similarity index.
type ItemEmbedding struct {
	ItemID    uuid.UUID
	UserID    string
	Embedding []float32
}

// CreateContentItemRequest is the body for POST /v1/items (push-style connectors).
type CreateContentItemRequest struct {
	Source         string         `json:"source" validate:"required,source"`
	OriginID       string         `json:"origin_id" validate:"required,min=1,max=512,no_null_bytes"`
	Title          string         `json:"title" validate:"required,min=1,max=1000,no_null_bytes"`
	Summary        string         `json:"summary" validate:"omitempty,max=4000,no_null_bytes"`
	Text           string         `json:"text" validate:"omitempty,no_null_bytes"`
	Date           *time.Time     `json:"date,omitempty"`
	Priority       string         `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	RelevanceScore *float64       `json:"relevance_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	Entities       []string       `json:"entities,omitempty" validate:"omitempty,max=50,dive,max=255"`
	ExtractedTasks []Task         `json:"extracted_tasks,omitempty" validate:"omitempty,max=50"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// ListContentItemsFilters narrows the items loaded for a user's feed.
type ListContentItemsFilters struct {
	Source *string    `form:"source" validate:"omitempty,source"`
	Since  *time.Time `form:"since"`
	Limit  int        `form:"limit" validate:"omitempty,min=1,max=500"`
}
