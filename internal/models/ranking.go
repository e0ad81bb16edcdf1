package models

// RankedItem is one ranked content item with its score and per-factor breakdown.
// Degraded is set when personalization failed and the item carries the uniform neutral score.
type RankedItem struct {
	Item       *ContentItem       `json:"item"`
	FinalScore float64            `json:"final_score"`
	Breakdown  map[string]float64 `json:"breakdown"`
	Degraded   bool               `json:"degraded,omitempty"`
}

// FeedResponse is returned by GET /v1/feed.
type FeedResponse struct {
	Items  []RankedItem `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	UserID string       `json:"user_id"`
}

// FeedQuery are the query parameters for GET /v1/feed.
type FeedQuery struct {
	Source *string `form:"source" validate:"omitempty,source"`
	Limit  int     `form:"limit" validate:"omitempty,min=1,max=200"`
}
