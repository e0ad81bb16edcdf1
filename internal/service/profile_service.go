package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/formbricks/feedrank/internal/apperrors"
	"github.com/formbricks/feedrank/internal/models"
	"github.com/formbricks/feedrank/internal/ranking"
)

// ProfilesStore reads and mutates preference profiles.
type ProfilesStore interface {
	GetOrCreate(ctx context.Context, userID string) (*models.UserPreferenceProfile, error)
	Modify(ctx context.Context, userID string, mutate func(*models.UserPreferenceProfile) error) (*models.UserPreferenceProfile, error)
}

// FeedbackCounter counts a user's feedback rows.
type FeedbackCounter interface {
	Count(ctx context.Context, userID string, filters *models.ListFeedbackFilters) (int64, error)
}

// ProfileService handles business logic for user preference profiles.
type ProfileService struct {
	profiles ProfilesStore
	feedback FeedbackCounter
}

// NewProfileService creates a new profile service.
func NewProfileService(profiles ProfilesStore, feedback FeedbackCounter) *ProfileService {
	return &ProfileService{profiles: profiles, feedback: feedback}
}

// Get returns the user's profile, creating it on first access.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.UserProfileResponse, error) {
	p, err := s.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	count, err := s.feedback.Count(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("count feedback: %w", err)
	}

	return &models.UserProfileResponse{
		UserID:             p.UserID,
		ImportantKeywords:  p.ImportantKeywords,
		ImportantContacts:  p.ImportantContacts,
		PreferredSources:   p.PreferredSources,
		LocalOnlyMode:      p.LocalOnlyMode,
		AllowLLMProcessing: p.AllowLLMProcessing,
		RankingWeights:     p.RankingWeights,
		FeedbackCount:      count,
	}, nil
}

// ValidateWeights rejects unknown factor names and weights that are negative or not finite.
func ValidateWeights(weights map[string]float64) error {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		if !models.IsRankingFactor(k) {
			return apperrors.NewInvalidValueError("ranking_weights", k, models.RankingFactors())
		}

		w := weights[k]
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return apperrors.NewValidationError("ranking_weights", "ranking weight "+k+" must be a non-negative number")
		}
	}

	return nil
}

// Update applies the non-nil fields of req. Keyword and contact lists are truncated to their caps.
// ranking_weights, when present, replaces the stored overrides.
func (s *ProfileService) Update(ctx context.Context, userID string, req *models.UpdateProfileRequest) error {
	if req.RankingWeights != nil {
		if err := ValidateWeights(req.RankingWeights); err != nil {
			return err
		}
	}

	_, err := s.profiles.Modify(ctx, userID, func(p *models.UserPreferenceProfile) error {
		if req.ImportantKeywords != nil {
			p.ImportantKeywords = capStrings(req.ImportantKeywords, models.MaxImportantKeywords)
		}

		if req.ImportantContacts != nil {
			p.ImportantContacts = capStrings(req.ImportantContacts, models.MaxImportantContacts)
		}

		if req.PreferredSources != nil {
			p.PreferredSources = append([]string{}, req.PreferredSources...)
		}

		if req.LocalOnlyMode != nil {
			p.LocalOnlyMode = *req.LocalOnlyMode
		}

		if req.AllowLLMProcessing != nil {
			p.AllowLLMProcessing = *req.AllowLLMProcessing
		}

		if req.RankingWeights != nil {
			p.RankingWeights = make(map[string]float64, len(req.RankingWeights))
			for k, v := range req.RankingWeights {
				p.RankingWeights[k] = v
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

// Reset clears learned keywords, contacts, sources, weights and history. The row is kept.
func (s *ProfileService) Reset(ctx context.Context, userID string) error {
	_, err := s.profiles.Modify(ctx, userID, func(p *models.UserPreferenceProfile) error {
		p.Reset()

		return nil
	})
	if err != nil {
		return fmt.Errorf("reset profile: %w", err)
	}

	return nil
}

// Weights returns the default factor weights and the user's effective weights.
func (s *ProfileService) Weights(ctx context.Context, userID string) (*models.RankingWeightsResponse, error) {
	p, err := s.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	defaults := models.DefaultRankingWeights()
	described := make(map[string]models.FactorWeight, len(defaults))

	for name, w := range defaults {
		described[name] = models.FactorWeight{Weight: w, Description: models.FactorDescriptions[name]}
	}

	return &models.RankingWeightsResponse{
		DefaultWeights:   described,
		EffectiveWeights: ranking.EffectiveWeights(p.RankingWeights),
	}, nil
}

func capStrings(in []string, limit int) []string {
	if len(in) > limit {
		in = in[:limit]
	}

	return append([]string{}, in...)
}
