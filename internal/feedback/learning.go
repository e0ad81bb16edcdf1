package feedback

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/formbricks/feedrank/internal/models"
)

// minKeywordRunes is exclusive: learned keywords are longer than this.
const minKeywordRunes = 3

// extractKeywords returns the lowercased whitespace-separated words of text longer than three
// characters and made only of letters, in order of appearance. Duplicates are kept; the caller
// dedupes against the profile.
func extractKeywords(text string) []string {
	var out []string

	for _, word := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(word) <= minKeywordRunes {
			continue
		}

		if strings.IndexFunc(word, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
			continue
		}

		out = append(out, word)
	}

	return out
}

// appendCapped appends values not already in list until list holds limit entries.
// Earlier entries always win; later ones are dropped once the cap is reached.
func appendCapped(list []string, limit int, values ...string) []string {
	for _, v := range values {
		if len(list) >= limit {
			break
		}

		if v == "" || slices.Contains(list, v) {
			continue
		}

		list = append(list, v)
	}

	return list
}

// learnFromItem grows the profile's keywords and contacts from an item the user liked or completed.
func learnFromItem(p *models.UserPreferenceProfile, item *models.ContentItem) {
	p.ImportantKeywords = appendCapped(p.ImportantKeywords, models.MaxImportantKeywords,
		extractKeywords(item.Title+" "+item.Summary)...)
	p.ImportantContacts = appendCapped(p.ImportantContacts, models.MaxImportantContacts,
		item.Sender(), item.SenderEmail())
}

// appendHistory adds entry and keeps only the most recent MaxFeedbackHistory entries.
func appendHistory(history []models.FeedbackHistoryEntry, entry models.FeedbackHistoryEntry) []models.FeedbackHistoryEntry {
	history = append(history, entry)
	if over := len(history) - models.MaxFeedbackHistory; over > 0 {
		history = slices.Clone(history[over:])
	}

	return history
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}
