package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/formbricks/feedrank/internal/datatypes"
	"github.com/formbricks/feedrank/internal/models"
)

func TestFactorResultValue(t *testing.T) {
	assert.InDelta(t, 0.5, unavailable().value(), 1e-12)
	assert.InDelta(t, 0.5, scored(math.NaN()).value(), 1e-12)
	assert.InDelta(t, 1.0, scored(7).value(), 1e-12)
	assert.InDelta(t, 0.0, scored(-3).value(), 1e-12)
	assert.InDelta(t, 0.42, scored(0.42).value(), 1e-12)
}

func TestSenderImportance(t *testing.T) {
	it := &models.ContentItem{Metadata: map[string]any{
		models.MetadataSender:      "Alice Smith",
		models.MetadataSenderEmail: "alice@example.com",
	}}

	tests := []struct {
		name     string
		contacts []string
		want     factorResult
	}{
		{"no contacts", nil, unavailable()},
		{"contact inside sender name", []string{"alice"}, scored(1.0)},
		{"sender email inside contact", []string{"Team <ALICE@example.com>"}, scored(1.0)},
		{"unknown sender", []string{"bob@example.com"}, scored(0.3)},
		{"blank contact ignored", []string{"  "}, scored(0.3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, senderImportance(it, tt.contacts))
		})
	}

	t.Run("blank sender never matches", func(t *testing.T) {
		anon := &models.ContentItem{}
		assert.Equal(t, scored(0.3), senderImportance(anon, []string{"alice"}))
	})
}

func TestUrgency(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		item models.ContentItem
		want float64
	}{
		{"no signal", models.ContentItem{Title: "hello"}, 0},
		{"keyword in text", models.ContentItem{Title: "hi", Text: "please reply ASAP"}, 0.9},
		{"strongest keyword wins", models.ContentItem{Title: "meeting deadline"}, 0.8},
		{"high priority floor", models.ContentItem{Title: "meeting", Priority: datatypes.PriorityHigh}, 0.7},
		{"urgent priority floor", models.ContentItem{Title: "x", Priority: datatypes.PriorityUrgent}, 0.9},
		{"keyword beats priority", models.ContentItem{Title: "urgent", Priority: datatypes.PriorityHigh}, 1.0},
		{"due tomorrow", models.ContentItem{Title: "x", ExtractedTasks: []models.Task{{DueDate: "2026-01-02T12:00:00Z"}}}, 0.9},
		{"due in three days", models.ContentItem{Title: "x", ExtractedTasks: []models.Task{{DueDate: "2026-01-04"}}}, 0.7},
		{"due in a week", models.ContentItem{Title: "x", ExtractedTasks: []models.Task{{DueDate: "2026-01-08T13:00:00"}}}, 0.5},
		{"due later", models.ContentItem{Title: "x", ExtractedTasks: []models.Task{{DueDate: "2026-02-01"}}}, 0},
		{"overdue", models.ContentItem{Title: "x", ExtractedTasks: []models.Task{{DueDate: "2025-12-01"}}}, 0.9},
		{"unparseable due date", models.ContentItem{Title: "x", ExtractedTasks: []models.Task{{DueDate: "next friday"}}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := urgency(&tt.item, now)
			assert.True(t, got.ok)
			assert.InDelta(t, tt.want, got.value(), 1e-12)
		})
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, daysUntil(now.Add(36*time.Hour), now))
	assert.Equal(t, 0, daysUntil(now.Add(time.Hour), now))
	assert.Equal(t, -1, daysUntil(now.Add(-time.Hour), now))
}

func TestRecency(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.InDelta(t, 1.0, recency(now, now).value(), 1e-12)
	assert.InDelta(t, math.Exp(-1), recency(now.Add(-24*time.Hour), now).value(), 1e-12)
	assert.InDelta(t, 1.0, recency(now.Add(time.Hour), now).value(), 1e-12)
	assert.False(t, recency(time.Time{}, now).ok)
}

func TestUserFeedback(t *testing.T) {
	assert.False(t, userFeedback(nil).ok)
	assert.False(t, userFeedback([]string{"dismiss"}).ok)
	assert.InDelta(t, 1.0, userFeedback([]string{"like"}).value(), 1e-12)
	assert.InDelta(t, (1.0+0.0+0.8+0.3)/4, userFeedback([]string{"like", "dislike", "complete", "snooze", "dismiss"}).value(), 1e-12)
}

func TestSemanticRelevance(t *testing.T) {
	assert.False(t, semanticRelevance(nil, []float32{1}).ok)
	assert.False(t, semanticRelevance([]float32{1, 0}, nil).ok)
	assert.False(t, semanticRelevance([]float32{0, 0}, []float32{1, 0}).ok)
	assert.False(t, semanticRelevance([]float32{1, 0}, []float32{1, 0, 0}).ok)
	assert.InDelta(t, 0.75, semanticRelevance([]float32{1, 0}, []float32{1, 1.7320508}).value(), 1e-6)
}
