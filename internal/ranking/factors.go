package ranking

import (
	"math"
	"strings"
	"time"

	"github.com/formbricks/feedrank/internal/datatypes"
	"github.com/formbricks/feedrank/internal/models"
	"github.com/formbricks/feedrank/pkg/embeddings"
)

// neutralScore is used whenever a factor has nothing to go on.
const neutralScore = 0.5

// Sender importance levels.
const (
	knownSenderScore   = 1.0
	unknownSenderScore = 0.3
)

// feedbackWindow bounds the feedback considered by the user_feedback factor.
const feedbackWindow = 30 * 24 * time.Hour

// urgencyKeywords maps lowercase substrings to their urgency.
var urgencyKeywords = []struct {
	keyword string
	score   float64
}{
	{"urgent", 1.0},
	{"asap", 0.9},
	{"immediately", 0.9},
	{"deadline", 0.8},
	{"due", 0.7},
	{"submit", 0.6},
	{"complete", 0.5},
	{"attend", 0.5},
	{"meeting", 0.4},
}

// feedbackScores maps feedback types to their contribution. Dismiss is not counted.
var feedbackScores = map[string]float64{
	models.FeedbackLike:     1.0,
	models.FeedbackComplete: 0.8,
	models.FeedbackSnooze:   0.3,
	models.FeedbackDislike:  0.0,
}

// factorResult is a factor's outcome before collapsing. ok=false means the input needed to
// compute the factor was missing or failed.
type factorResult struct {
	score float64
	ok    bool
}

func scored(v float64) factorResult { return factorResult{score: v, ok: true} }

func unavailable() factorResult { return factorResult{} }

// value clamps the score to [0,1], or returns the neutral score when unavailable.
func (r factorResult) value() float64 {
	if !r.ok || math.IsNaN(r.score) {
		return neutralScore
	}

	return clamp01(r.score)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// semanticRelevance maps the cosine similarity between the interest centroid and the item
// vector from [-1,1] to [0,1].
func semanticRelevance(centroid, itemVec []float32) factorResult {
	if centroid == nil || itemVec == nil {
		return unavailable()
	}

	if embeddings.Norm(centroid) == 0 || embeddings.Norm(itemVec) == 0 || len(centroid) != len(itemVec) {
		return unavailable()
	}

	return scored((embeddings.Cosine(centroid, itemVec) + 1) / 2)
}

// senderImportance checks the item's sender name and email against the important contacts,
// matching case-insensitive containment in either direction. Blank sender fields never match.
func senderImportance(item *models.ContentItem, contacts []string) factorResult {
	if len(contacts) == 0 {
		return unavailable()
	}

	sender := strings.ToLower(strings.TrimSpace(item.Sender()))
	email := strings.ToLower(strings.TrimSpace(item.SenderEmail()))

	for _, c := range contacts {
		contact := strings.ToLower(strings.TrimSpace(c))
		if contact == "" {
			continue
		}

		for _, field := range []string{sender, email} {
			if field == "" {
				continue
			}

			if strings.Contains(field, contact) || strings.Contains(contact, field) {
				return scored(knownSenderScore)
			}
		}
	}

	return scored(unknownSenderScore)
}

// urgency takes the strongest signal among keywords, task due dates and item priority.
func urgency(item *models.ContentItem, now time.Time) factorResult {
	text := strings.ToLower(item.Title + " " + item.Summary + " " + item.Text)
	score := 0.0

	for _, k := range urgencyKeywords {
		if strings.Contains(text, k.keyword) {
			score = math.Max(score, k.score)
		}
	}

	for _, task := range item.ExtractedTasks {
		due, ok := parseDueDate(task.DueDate)
		if !ok {
			continue
		}

		score = math.Max(score, dueDateUrgency(daysUntil(due, now)))
	}

	switch item.Priority {
	case datatypes.PriorityUrgent:
		score = math.Max(score, 0.9)
	case datatypes.PriorityHigh:
		score = math.Max(score, 0.7)
	}

	return scored(math.Min(1, score))
}

func dueDateUrgency(days int) float64 {
	switch {
	case days <= 1:
		return 0.9
	case days <= 3:
		return 0.7
	case days <= 7:
		return 0.5
	default:
		return 0
	}
}

// daysUntil counts whole days from now to due, rounding toward negative infinity,
// so anything overdue is negative.
func daysUntil(due, now time.Time) int {
	return int(math.Floor(due.Sub(now).Hours() / 24))
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDueDate accepts ISO 8601 dates and timestamps. Values without a zone are read as UTC.
func parseDueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// recency decays exponentially with a 24 hour time constant. Future dates score 1.
func recency(date, now time.Time) factorResult {
	if date.IsZero() {
		return unavailable()
	}

	ageHours := now.Sub(date).Hours()

	return scored(math.Min(1, math.Exp(-ageHours/24)))
}

// userFeedback averages the user's recent feedback, independent of the item being scored.
func userFeedback(feedbackTypes []string) factorResult {
	var (
		total float64
		count int
	)

	for _, t := range feedbackTypes {
		s, ok := feedbackScores[t]
		if !ok {
			continue
		}

		total += s
		count++
	}

	if count == 0 {
		return unavailable()
	}

	return scored(total / float64(count))
}
