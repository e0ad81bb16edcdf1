package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/formbricks/feedrank/internal/datatypes"
)

// SearchRequest is the body for POST /v1/search. Out-of-range values are rejected, not clamped.
type SearchRequest struct {
	Query        string   `json:"query" validate:"required,min=1,max=1000,no_null_bytes"`
	TopK         *int     `json:"top_k,omitempty" validate:"omitempty,min=1,max=100"`
	Threshold    *float64 `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	SourceFilter []string `json:"source_filter,omitempty" validate:"omitempty,dive,source"`
}

// SearchResultItem is one search hit.
type SearchResultItem struct {
	ID              uuid.UUID          `json:"id"`
	Title           string             `json:"title"`
	Summary         string             `json:"summary"`
	Source          datatypes.Source   `json:"source"`
	Date            time.Time          `json:"date"`
	Priority        datatypes.Priority `json:"priority"`
	RelevanceScore  float64            `json:"relevance_score"`
	SimilarityScore float64            `json:"similarity_score"`
	Entities        []string           `json:"entities"`
	HasTasks        bool               `json:"has_tasks"`
}

// SearchResponse is returned by POST /v1/search.
type SearchResponse struct {
	Query        string             `json:"query"`
	Results      []SearchResultItem `json:"results"`
	TotalFound   int                `json:"total_found"`
	SearchTimeMS float64            `json:"search_time_ms"`
}

// IndexStats describes the in-memory similarity index.
type IndexStats struct {
	TotalVectors  int            `json:"total_vectors"`
	Dimension     int            `json:"dimension"`
	Users         int            `json:"users"`
	PerUser       map[string]int `json:"per_user,omitempty"`
	EmbeddingTier string         `json:"embedding_tier"`
	LastRebuild   *time.Time     `json:"last_rebuild,omitempty"`
}
