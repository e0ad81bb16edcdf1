package ranking

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/feedrank/internal/datatypes"
	"github.com/formbricks/feedrank/internal/embeddings"
	"github.com/formbricks/feedrank/internal/models"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeProfiles struct {
	profile *models.UserPreferenceProfile
	err     error
}

func (f *fakeProfiles) GetOrCreate(_ context.Context, userID string) (*models.UserPreferenceProfile, error) {
	if f.err != nil {
		return nil, f.err
	}

	if f.profile == nil {
		f.profile = models.NewUserPreferenceProfile(userID, testNow)
	}

	return f.profile, nil
}

type fakeFeedback struct {
	types []string
	err   error
	since time.Time
}

func (f *fakeFeedback) FeedbackTypesSince(_ context.Context, _ string, since time.Time) ([]string, error) {
	f.since = since

	return f.types, f.err
}

func newProvider(t *testing.T, fail bool) (*embeddings.Provider, *embeddings.MockClient) {
	t.Helper()

	mock := embeddings.NewMockClient(16)
	mock.SetFail(fail)

	return embeddings.NewProvider(embeddings.TierLocal, mock, time.Second, embeddings.ProviderConfig{Dimensions: 16, CacheSize: 100}), mock
}

func newEngine(t *testing.T, profiles *fakeProfiles, feedback *fakeFeedback, embedFail bool) *Engine {
	t.Helper()

	provider, _ := newProvider(t, embedFail)

	return NewEngine(profiles, feedback, provider, WithClock(func() time.Time { return testNow }))
}

func item(title string, age time.Duration, mutate ...func(*models.ContentItem)) *models.ContentItem {
	it := &models.ContentItem{
		ID:       uuid.New(),
		UserID:   "u1",
		Source:   datatypes.SourceGmail,
		OriginID: title,
		Title:    title,
		Date:     testNow.Add(-age),
		Priority: datatypes.PriorityMedium,
		Metadata: map[string]any{},
	}
	for _, m := range mutate {
		m(it)
	}

	return it
}

func withSender(name, email string) func(*models.ContentItem) {
	return func(it *models.ContentItem) {
		it.Metadata[models.MetadataSender] = name
		it.Metadata[models.MetadataSenderEmail] = email
	}
}

func TestRank_ScenarioA_UrgentKnownSender(t *testing.T) {
	profile := models.NewUserPreferenceProfile("u1", testNow)
	profile.ImportantContacts = []string{"alice@example.com"}

	e := newEngine(t, &fakeProfiles{profile: profile}, &fakeFeedback{}, false)

	it := item("URGENT: submit report", 0, withSender("Alice", "alice@example.com"), func(it *models.ContentItem) {
		it.Priority = datatypes.PriorityUrgent
	})

	ranked := e.Rank(context.Background(), []*models.ContentItem{it}, "u1", 0)
	require.Len(t, ranked, 1)

	b := ranked[0].Breakdown
	assert.InDelta(t, 1.0, b[models.FactorUrgency], 1e-9)
	assert.InDelta(t, 1.0, b[models.FactorSenderImportance], 1e-9)
	assert.InDelta(t, 1.0, b[models.FactorRecency], 1e-9)
	assert.InDelta(t, 0.5, b[models.FactorUserFeedback], 1e-9)
	assert.InDelta(t, 0.5, b[models.FactorSemanticRelevance], 1e-9)
	assert.InDelta(t, 0.15+0.25+0.15+0.025+0.20, ranked[0].FinalScore, 1e-9)
	assert.False(t, ranked[0].Degraded)
}

func TestRank_ScenarioB_NoContactsVersusUnknownSender(t *testing.T) {
	it := item("weekly digest", 7*24*time.Hour, withSender("Newsletter", "news@example.org"))

	empty := newEngine(t, &fakeProfiles{}, &fakeFeedback{}, false)
	ranked := empty.Rank(context.Background(), []*models.ContentItem{it}, "u1", 0)
	require.Len(t, ranked, 1)
	assert.InDelta(t, 0.5, ranked[0].Breakdown[models.FactorSenderImportance], 1e-9)
	assert.InDelta(t, math.Exp(-7), ranked[0].Breakdown[models.FactorRecency], 1e-9)
	assert.InDelta(t, 0.0, ranked[0].Breakdown[models.FactorUrgency], 1e-9)

	profile := models.NewUserPreferenceProfile("u1", testNow)
	profile.ImportantContacts = []string{"boss@example.com"}

	withContacts := newEngine(t, &fakeProfiles{profile: profile}, &fakeFeedback{}, false)
	ranked = withContacts.Rank(context.Background(), []*models.ContentItem{it}, "u1", 0)
	assert.InDelta(t, 0.3, ranked[0].Breakdown[models.FactorSenderImportance], 1e-9)
}

func TestRank_Deterministic(t *testing.T) {
	profile := models.NewUserPreferenceProfile("u1", testNow)
	profile.ImportantKeywords = []string{"invoice", "deadline", "project"}
	profile.ImportantContacts = []string{"alice"}

	items := []*models.ContentItem{
		item("project kickoff meeting", time.Hour, withSender("Alice", "")),
		item("invoice overdue", 30*time.Hour),
		item("deadline tomorrow", 2*time.Hour),
		item("random newsletter", 10*time.Hour),
	}

	e := newEngine(t, &fakeProfiles{profile: profile}, &fakeFeedback{types: []string{"like", "snooze"}}, false)

	first := e.Rank(context.Background(), items, "u1", 0)
	second := e.Rank(context.Background(), items, "u1", 0)

	require.Len(t, first, len(items))

	for i := range first {
		assert.Equal(t, first[i].Item.ID, second[i].Item.ID)
		assert.Equal(t, first[i].FinalScore, second[i].FinalScore)
		assert.Equal(t, first[i].Breakdown, second[i].Breakdown)
	}
}

func TestRank_FactorsClamped(t *testing.T) {
	profile := models.NewUserPreferenceProfile("u1", testNow)
	profile.ImportantKeywords = []string{"urgent"}
	profile.ImportantContacts = []string{"x"}

	var title string
	for range 1000 {
		title += "urgent asap deadline "
	}

	items := []*models.ContentItem{
		item(title, -48*time.Hour, func(it *models.ContentItem) {
			it.Priority = datatypes.PriorityUrgent
			it.ExtractedTasks = []models.Task{{Verb: "submit", DueDate: "1999-01-01"}, {Verb: "pay", DueDate: "garbage"}}
		}),
		item("ancient", 24*365*100*time.Hour),
		{ID: uuid.New(), Title: "", Metadata: nil},
	}

	e := newEngine(t, &fakeProfiles{profile: profile}, &fakeFeedback{types: []string{"like", "like", "unknown"}}, false)

	for _, r := range e.Rank(context.Background(), items, "u1", 0) {
		for name, v := range r.Breakdown {
			assert.GreaterOrEqual(t, v, 0.0, name)
			assert.LessOrEqual(t, v, 1.0, name)
		}
	}
}

func TestRank_WeightLinearity(t *testing.T) {
	items := []*models.ContentItem{
		item("submit the form", 3*time.Hour),
		item("lunch plans", 20*time.Hour),
		item("meeting notes", 50*time.Hour),
	}

	base := models.NewUserPreferenceProfile("u1", testNow)
	e := newEngine(t, &fakeProfiles{profile: base}, &fakeFeedback{}, false)
	before := byID(e.Rank(context.Background(), items, "u1", 0))

	const delta = 0.15

	boosted := models.NewUserPreferenceProfile("u1", testNow)
	boosted.RankingWeights = map[string]float64{models.FactorUrgency: 0.15 + delta}
	e = newEngine(t, &fakeProfiles{profile: boosted}, &fakeFeedback{}, false)
	after := byID(e.Rank(context.Background(), items, "u1", 0))

	for id, old := range before {
		want := old.FinalScore + old.Breakdown[models.FactorUrgency]*delta
		assert.InDelta(t, want, after[id].FinalScore, 1e-9)
	}
}

func byID(ranked []models.RankedItem) map[uuid.UUID]models.RankedItem {
	out := make(map[uuid.UUID]models.RankedItem, len(ranked))
	for _, r := range ranked {
		out[r.Item.ID] = r
	}

	return out
}

func TestRank_EmbeddingFailureIsNeutral(t *testing.T) {
	profile := models.NewUserPreferenceProfile("u1", testNow)
	profile.ImportantKeywords = []string{"golang", "kubernetes"}

	items := []*models.ContentItem{item("golang release", time.Hour), item("cooking tips", time.Hour)}

	e := newEngine(t, &fakeProfiles{profile: profile}, &fakeFeedback{}, true)
	ranked := e.Rank(context.Background(), items, "u1", 0)

	require.Len(t, ranked, 2)

	for _, r := range ranked {
		assert.InDelta(t, 0.5, r.Breakdown[models.FactorSemanticRelevance], 1e-12)
		assert.False(t, r.Degraded)
	}
}

func TestRank_SemanticRelevanceUsesKeywordCentroid(t *testing.T) {
	profile := models.NewUserPreferenceProfile("u1", testNow)
	profile.ImportantKeywords = []string{"golang"}

	provider, mock := newProvider(t, false)
	vec := func(x, y float32) []float32 {
		v := make([]float32, 16)
		v[0], v[1] = x, y

		return v
	}
	mock.Set("golang", vec(1, 0))
	mock.Set("golang release notes", vec(1, 0))
	mock.Set("cooking tips", vec(-1, 0))
	mock.Set("gardening", vec(0, 1))

	e := NewEngine(&fakeProfiles{profile: profile}, &fakeFeedback{}, provider, WithClock(func() time.Time { return testNow }))

	ranked := byTitle(e.Rank(context.Background(), []*models.ContentItem{
		item("golang release notes", time.Hour),
		item("cooking tips", time.Hour),
		item("gardening", time.Hour),
	}, "u1", 0))

	assert.InDelta(t, 1.0, ranked["golang release notes"].Breakdown[models.FactorSemanticRelevance], 1e-6)
	assert.InDelta(t, 0.0, ranked["cooking tips"].Breakdown[models.FactorSemanticRelevance], 1e-6)
	assert.InDelta(t, 0.5, ranked["gardening"].Breakdown[models.FactorSemanticRelevance], 1e-6)
}

func byTitle(ranked []models.RankedItem) map[string]models.RankedItem {
	out := make(map[string]models.RankedItem, len(ranked))
	for _, r := range ranked {
		out[r.Item.Title] = r
	}

	return out
}

func TestRank_DegradedOnProfileFailure(t *testing.T) {
	items := []*models.ContentItem{item("a", time.Hour), item("b", 2*time.Hour), item("c", 3*time.Hour)}

	e := newEngine(t, &fakeProfiles{err: errors.New("db down")}, &fakeFeedback{}, false)
	ranked := e.Rank(context.Background(), items, "u1", 2)

	require.Len(t, ranked, 2)

	for i, r := range ranked {
		assert.Equal(t, items[i].ID, r.Item.ID)
		assert.InDelta(t, 0.5, r.FinalScore, 1e-12)
		assert.Empty(t, r.Breakdown)
		assert.True(t, r.Degraded)
	}
}

func TestRank_DegradedOnFeedbackFailure(t *testing.T) {
	e := newEngine(t, &fakeProfiles{}, &fakeFeedback{err: errors.New("timeout")}, false)
	ranked := e.Rank(context.Background(), []*models.ContentItem{item("a", time.Hour)}, "u1", 0)

	require.Len(t, ranked, 1)
	assert.True(t, ranked[0].Degraded)
}

func TestRank_SortAndLimit(t *testing.T) {
	items := make([]*models.ContentItem, 0, 60)
	for i := range 60 {
		items = append(items, item("post", time.Duration(i)*time.Hour))
	}

	fb := &fakeFeedback{}
	e := newEngine(t, &fakeProfiles{}, fb, false)

	ranked := e.Rank(context.Background(), items, "u1", 0)
	require.Len(t, ranked, DefaultLimit)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].FinalScore, ranked[i].FinalScore)
	}

	assert.Equal(t, items[0].ID, ranked[0].Item.ID)
	assert.Equal(t, testNow.Add(-feedbackWindow), fb.since)

	assert.Len(t, e.Rank(context.Background(), items, "u1", 5), 5)
	assert.Empty(t, e.Rank(context.Background(), nil, "u1", 5))
}

func TestRank_StableForEqualScores(t *testing.T) {
	items := []*models.ContentItem{item("same", time.Hour), item("same", time.Hour), item("same", time.Hour)}

	e := newEngine(t, &fakeProfiles{}, &fakeFeedback{}, false)
	ranked := e.Rank(context.Background(), items, "u1", 0)

	for i := range items {
		assert.Equal(t, items[i].ID, ranked[i].Item.ID)
	}
}

func TestEffectiveWeights(t *testing.T) {
	w := EffectiveWeights(map[string]float64{models.FactorRecency: 0.9, "bogus": 1})

	assert.InDelta(t, 0.9, w[models.FactorRecency], 1e-12)
	assert.InDelta(t, 0.40, w[models.FactorSemanticRelevance], 1e-12)
	assert.NotContains(t, w, "bogus")
	assert.Len(t, w, 5)

	assert.Equal(t, models.DefaultRankingWeights(), EffectiveWeights(nil))
}
