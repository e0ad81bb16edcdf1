package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formbricks/feedrank/internal/models"
)

const profileColumns = `user_id, important_keywords, important_contacts, preferred_sources,
	local_only_mode, allow_llm_processing, ranking_weights, feedback_history, created_at, updated_at`

// ProfilesRepository handles data access for user preference profiles.
type ProfilesRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewProfilesRepository creates a new profiles repository.
func NewProfilesRepository(db *pgxpool.Pool) *ProfilesRepository {
	return &ProfilesRepository{db: db, now: time.Now}
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// GetOrCreate returns the user's profile, creating one with defaults on first access.
func (r *ProfilesRepository) GetOrCreate(ctx context.Context, userID string) (*models.UserPreferenceProfile, error) {
	if err := r.ensure(ctx, r.db, userID); err != nil {
		return nil, err
	}

	profile, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return profile, nil
}

// ensure inserts a default profile row when none exists.
func (r *ProfilesRepository) ensure(ctx context.Context, db execer, userID string) error {
	p := models.NewUserPreferenceProfile(userID, r.now())

	cols, err := encodeProfileJSON(p)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, `
		INSERT INTO user_profiles (user_id, important_keywords, important_contacts, preferred_sources,
			local_only_mode, allow_llm_processing, ranking_weights, feedback_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (user_id) DO NOTHING`,
		p.UserID, cols.keywords, cols.contacts, cols.sources, p.LocalOnlyMode, p.AllowLLMProcessing,
		cols.weights, cols.history, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user profile: %w", err)
	}

	return nil
}

// Update stores every mutable field of p and refreshes updated_at.
func (r *ProfilesRepository) Update(ctx context.Context, p *models.UserPreferenceProfile) error {
	return r.update(ctx, r.db, p)
}

func (r *ProfilesRepository) update(ctx context.Context, db execer, p *models.UserPreferenceProfile) error {
	cols, err := encodeProfileJSON(p)
	if err != nil {
		return err
	}

	p.UpdatedAt = r.now()

	_, err = db.Exec(ctx, `
		UPDATE user_profiles SET important_keywords = $2, important_contacts = $3, preferred_sources = $4,
			local_only_mode = $5, allow_llm_processing = $6, ranking_weights = $7, feedback_history = $8,
			updated_at = $9
		WHERE user_id = $1`,
		p.UserID, cols.keywords, cols.contacts, cols.sources, p.LocalOnlyMode, p.AllowLLMProcessing,
		cols.weights, cols.history, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	return nil
}

// Modify loads the profile under a row lock, applies mutate and stores the result.
func (r *ProfilesRepository) Modify(
	ctx context.Context, userID string, mutate func(*models.UserPreferenceProfile) error,
) (*models.UserPreferenceProfile, error) {
	var out *models.UserPreferenceProfile

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		p, err := r.lockProfile(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := mutate(p); err != nil {
			return err
		}

		if err := r.update(ctx, tx, p); err != nil {
			return err
		}

		out = p

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// ApplyFeedback inserts fb and runs mutate against the locked profile in one transaction.
func (r *ProfilesRepository) ApplyFeedback(
	ctx context.Context, fb *models.Feedback, mutate func(*models.UserPreferenceProfile) error,
) error {
	if fb.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate feedback id: %w", err)
		}

		fb.ID = id
	}

	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = r.now()
	}

	fbContext := fb.Context
	if fbContext == nil {
		fbContext = map[string]any{}
	}

	contextJSON, err := json.Marshal(fbContext)
	if err != nil {
		return fmt.Errorf("encode feedback context: %w", err)
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		p, err := r.lockProfile(ctx, tx, fb.UserID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO feedback (id, user_id, content_item_id, feedback_type, feedback_value, context, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			fb.ID, fb.UserID, fb.ContentItemID, fb.FeedbackType, fb.FeedbackValue, contextJSON, fb.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert feedback: %w", err)
		}

		if err := mutate(p); err != nil {
			return err
		}

		return r.update(ctx, tx, p)
	})
}

func (r *ProfilesRepository) lockProfile(ctx context.Context, tx pgx.Tx, userID string) (*models.UserPreferenceProfile, error) {
	if err := r.ensure(ctx, tx, userID); err != nil {
		return nil, err
	}

	p, err := scanProfile(tx.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1 FOR UPDATE`, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user profile: %w", err)
	}

	return p, nil
}

func (r *ProfilesRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type profileJSON struct {
	keywords, contacts, sources, weights, history []byte
}

// encodeProfileJSON marshals the JSONB columns. Nil slices and maps are written as empty values.
func encodeProfileJSON(p *models.UserPreferenceProfile) (profileJSON, error) {
	var (
		out profileJSON
		err error
	)

	if out.keywords, err = json.Marshal(nonNilStrings(p.ImportantKeywords)); err != nil {
		return out, fmt.Errorf("encode important keywords: %w", err)
	}

	if out.contacts, err = json.Marshal(nonNilStrings(p.ImportantContacts)); err != nil {
		return out, fmt.Errorf("encode important contacts: %w", err)
	}

	if out.sources, err = json.Marshal(nonNilStrings(p.PreferredSources)); err != nil {
		return out, fmt.Errorf("encode preferred sources: %w", err)
	}

	weights := p.RankingWeights
	if weights == nil {
		weights = map[string]float64{}
	}

	if out.weights, err = json.Marshal(weights); err != nil {
		return out, fmt.Errorf("encode ranking weights: %w", err)
	}

	history := p.FeedbackHistory
	if history == nil {
		history = []models.FeedbackHistoryEntry{}
	}

	if out.history, err = json.Marshal(history); err != nil {
		return out, fmt.Errorf("encode feedback history: %w", err)
	}

	return out, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

func scanProfile(row pgx.Row) (*models.UserPreferenceProfile, error) {
	var (
		p    models.UserPreferenceProfile
		cols profileJSON
	)

	err := row.Scan(
		&p.UserID, &cols.keywords, &cols.contacts, &cols.sources,
		&p.LocalOnlyMode, &p.AllowLLMProcessing, &cols.weights, &cols.history, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeProfileJSON(&p, cols); err != nil {
		return nil, err
	}

	return &p, nil
}

func decodeProfileJSON(p *models.UserPreferenceProfile, cols profileJSON) error {
	p.ImportantKeywords = []string{}
	p.ImportantContacts = []string{}
	p.PreferredSources = []string{}
	p.RankingWeights = map[string]float64{}
	p.FeedbackHistory = []models.FeedbackHistoryEntry{}

	fields := []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"important keywords", cols.keywords, &p.ImportantKeywords},
		{"important contacts", cols.contacts, &p.ImportantContacts},
		{"preferred sources", cols.sources, &p.PreferredSources},
		{"ranking weights", cols.weights, &p.RankingWeights},
		{"feedback history", cols.history, &p.FeedbackHistory},
	}

	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}

		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return fmt.Errorf("decode %s: %w", f.name, err)
		}
	}

	// A JSON null decodes to nil.
	p.ImportantKeywords = nonNilStrings(p.ImportantKeywords)
	p.ImportantContacts = nonNilStrings(p.ImportantContacts)
	p.PreferredSources = nonNilStrings(p.PreferredSources)

	if p.RankingWeights == nil {
		p.RankingWeights = map[string]float64{}
	}

	if p.FeedbackHistory == nil {
		p.FeedbackHistory = []models.FeedbackHistoryEntry{}
	}

	return nil
}
