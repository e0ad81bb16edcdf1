package models

import (
	"time"

	"github.com/google/uuid"
)

// Ranking factor names. These are the only keys accepted in ranking weight overrides.
const (
	FactorSemanticRelevance = "semantic_relevance"
	FactorSenderImportance  = "sender_importance"
	FactorUrgency           = "urgency"
	FactorRecency           = "recency"
	FactorUserFeedback      = "user_feedback"
)

// Profile limits.
const (
	MaxImportantKeywords = 50
	MaxImportantContacts = 20
	MaxFeedbackHistory   = 100
	MaxHistoryTitleLen   = 100
)

// RankingFactors lists the factor names in their canonical order.
func RankingFactors() []string {
	return []string{
		FactorSemanticRelevance,
		FactorSenderImportance,
		FactorUrgency,
		FactorRecency,
		FactorUserFeedback,
	}
}

// IsRankingFactor reports whether name is a recognized factor.
func IsRankingFactor(name string) bool {
	switch name {
	case FactorSemanticRelevance, FactorSenderImportance, FactorUrgency, FactorRecency, FactorUserFeedback:
		return true
	default:
		return false
	}
}

// DefaultRankingWeights returns a fresh copy of the default factor weights.
func DefaultRankingWeights() map[string]float64 {
	return map[string]float64{
		FactorSemanticRelevance: 0.40,
		FactorSenderImportance:  0.25,
		FactorUrgency:           0.15,
		FactorRecency:           0.15,
		FactorUserFeedback:      0.05,
	}
}

// FactorDescriptions explains each factor for the weights endpoint.
var FactorDescriptions = map[string]string{
	FactorSemanticRelevance: "How relevant the content is to your interests",
	FactorSenderImportance:  "Importance of the sender/contact",
	FactorUrgency:           "Time sensitivity and urgency of the content",
	FactorRecency:           "How recent the content is",
	FactorUserFeedback:      "Based on your historical feedback",
}

// FeedbackHistoryEntry is a denormalized snapshot of one feedback action. Title is copied so the
// entry stays readable after the item itself is removed by retention cleanup.
type FeedbackHistoryEntry struct {
	ContentItemID uuid.UUID `json:"content_item_id"`
	FeedbackType  string    `json:"feedback_type"`
	FeedbackValue *float64  `json:"feedback_value,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	Title         string    `json:"title"`
}

// UserPreferenceProfile is the per-user personalization state.
type UserPreferenceProfile struct {
	UserID             string                 `json:"user_id"`
	ImportantKeywords  []string               `json:"important_keywords"`
	ImportantContacts  []string               `json:"important_contacts"`
	PreferredSources   []string               `json:"preferred_sources"`
	LocalOnlyMode      bool                   `json:"local_only_mode"`
	AllowLLMProcessing bool                   `json:"allow_llm_processing"`
	RankingWeights     map[string]float64     `json:"ranking_weights"`
	FeedbackHistory    []FeedbackHistoryEntry `json:"feedback_history"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// NewUserPreferenceProfile returns a profile with the documented defaults.
func NewUserPreferenceProfile(userID string, now time.Time) *UserPreferenceProfile {
	return &UserPreferenceProfile{
		UserID:             userID,
		ImportantKeywords:  []string{},
		ImportantContacts:  []string{},
		PreferredSources:   []string{},
		LocalOnlyMode:      false,
		AllowLLMProcessing: true,
		RankingWeights:     map[string]float64{},
		FeedbackHistory:    []FeedbackHistoryEntry{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Reset clears learned and configured state. Privacy flags and timestamps are kept.
func (p *UserPreferenceProfile) Reset() {
	p.ImportantKeywords = []string{}
	p.ImportantContacts = []string{}
	p.PreferredSources = []string{}
	p.RankingWeights = map[string]float64{}
	p.FeedbackHistory = []FeedbackHistoryEntry{}
}

// UserProfileResponse is returned by GET /v1/profile.
type UserProfileResponse struct {
	UserID             string             `json:"user_id"`
	ImportantKeywords  []string           `json:"important_keywords"`
	ImportantContacts  []string           `json:"important_contacts"`
	PreferredSources   []string           `json:"preferred_sources"`
	LocalOnlyMode      bool               `json:"local_only_mode"`
	AllowLLMProcessing bool               `json:"allow_llm_processing"`
	RankingWeights     map[string]float64 `json:"ranking_weights"`
	FeedbackCount      int64              `json:"feedback_count"`
}

// UpdateProfileRequest is the body for PUT /v1/profile. Nil fields are left unchanged.
// Keyword and contact lists longer than their caps are truncated, not rejected.
type UpdateProfileRequest struct {
	ImportantKeywords  []string           `json:"important_keywords,omitempty" validate:"omitempty,dive,min=1,max=100,no_null_bytes"`
	ImportantContacts  []string           `json:"important_contacts,omitempty" validate:"omitempty,dive,min=1,max=255,no_null_bytes"`
	PreferredSources   []string           `json:"preferred_sources,omitempty" validate:"omitempty,dive,source"`
	LocalOnlyMode      *bool              `json:"local_only_mode,omitempty"`
	AllowLLMProcessing *bool              `json:"allow_llm_processing,omitempty"`
	RankingWeights     map[string]float64 `json:"ranking_weights,omitempty"`
}

// FactorWeight describes one factor on the weights endpoint.
type FactorWeight struct {
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// RankingWeightsResponse is returned by GET /v1/ranking/weights.
type RankingWeightsResponse struct {
	DefaultWeights   map[string]FactorWeight `json:"default_weights"`
	EffectiveWeights map[string]float64      `json:"effective_weights"`
}
