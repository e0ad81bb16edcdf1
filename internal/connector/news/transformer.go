package news

import (
	"fmt"
	"hash/fnv"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/formbricks/feedrank/internal/datatypes"
	"github.com/formbricks/feedrank/internal/models"
)

const (
	maxSummaryRunes = 200
	maxTextRunes    = 1000
	maxEntities     = 10

	baseRelevance = 0.3
)

var (
	urgentTerms    = []string{"breaking", "urgent", "emergency", "crisis", "alert"}
	techTerms      = []string{"ai", "artificial intelligence", "machine learning", "startup", "funding", "acquisition"}
	techTitleTerms = []string{"ai", "tech", "software", "programming", "startup", "innovation"}
	entityTerms    = []string{"ai", "artificial intelligence", "machine learning", "blockchain", "cryptocurrency"}

	companyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b([A-Z][a-z]+)\s+(?:Inc|Corp|LLC|Ltd)\b`),
		regexp.MustCompile(`\b([A-Z][a-z]+)\s+Technologies?\b`),
		regexp.MustCompile(`\b([A-Z][a-z]+)\s+Systems?\b`),
	}

	htmlTag    = regexp.MustCompile(`<[^>]+>`)
	whitespace = regexp.MustCompile(`\s+`)

	termPatterns = compileTerms(urgentTerms, techTerms, techTitleTerms, entityTerms)
)

// compileTerms builds whole-word matchers so "ai" does not match inside "said".
func compileTerms(lists ...[]string) map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)

	for _, list := range lists {
		for _, term := range list {
			if _, ok := out[term]; !ok {
				out[term] = regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
			}
		}
	}

	return out
}

func containsTerm(text, term string) bool {
	return termPatterns[term].MatchString(text)
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if containsTerm(text, term) {
			return true
		}
	}

	return false
}

// TransformEntry converts one feed entry into a news content item. UserID is left empty.
func TransformEntry(entry *gofeed.Item, feedURL string, now time.Time) *models.ContentItem {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = "No Title"
	}

	description := StripHTML(entry.Description)

	content := StripHTML(entry.Content)
	if content == "" {
		content = description
	}

	summary := description
	if summary == "" {
		summary = content
	}

	date := now
	switch {
	case entry.PublishedParsed != nil:
		date = *entry.PublishedParsed
	case entry.UpdatedParsed != nil:
		date = *entry.UpdatedParsed
	}

	lowered := strings.ToLower(title + " " + content)
	tasks := ExtractTasks(title+". "+content, now)

	return &models.ContentItem{
		Source:         datatypes.SourceNews,
		OriginID:       originID(entry.Link, title),
		Title:          title,
		Summary:        truncateRunes(summary, maxSummaryRunes),
		Text:           truncateRunes(content, maxTextRunes),
		Date:           date,
		Priority:       priorityFor(lowered),
		RelevanceScore: relevanceFor(title, date, now),
		Entities:       entitiesFor(title, lowered),
		HasTasks:       len(tasks) > 0,
		ExtractedTasks: tasks,
		Metadata: map[string]any{
			"author":      authorOf(entry),
			"source":      feedURL,
			"source_name": SourceName(feedURL),
			"link":        entry.Link,
			"tags":        tagsOf(entry),
		},
	}
}

func priorityFor(lowered string) datatypes.Priority {
	switch {
	case containsAny(lowered, urgentTerms):
		return datatypes.PriorityHigh
	case containsAny(lowered, techTerms):
		return datatypes.PriorityMedium
	default:
		return datatypes.PriorityLow
	}
}

func relevanceFor(title string, date, now time.Time) float64 {
	score := baseRelevance

	if containsAny(strings.ToLower(title), techTitleTerms) {
		score += 0.2
	}

	age := now.Sub(date)

	switch {
	case age < 24*time.Hour:
		score += 0.1
	case age < 7*24*time.Hour:
		score += 0.05
	}

	return min(score, 1.0)
}

func entitiesFor(title, lowered string) []string {
	entities := []string{}
	seen := map[string]struct{}{}

	add := func(e string) {
		if _, ok := seen[e]; ok || len(entities) >= maxEntities {
			return
		}

		seen[e] = struct{}{}
		entities = append(entities, e)
	}

	for _, term := range entityTerms {
		if containsTerm(lowered, term) {
			add(term)
		}
	}

	for _, pattern := range companyPatterns {
		for _, m := range pattern.FindAllStringSubmatch(title, -1) {
			add(strings.ToLower(m[1]))
		}
	}

	return entities
}

func originID(link, title string) string {
	if link != "" {
		return link
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(title))

	return fmt.Sprintf("news_%x", h.Sum64())
}

func authorOf(entry *gofeed.Item) string {
	if entry.Author != nil && entry.Author.Name != "" {
		return entry.Author.Name
	}

	for _, a := range entry.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}

	return ""
}

func tagsOf(entry *gofeed.Item) []string {
	tags := make([]string, 0, len(entry.Categories))
	for _, c := range entry.Categories {
		if c = strings.TrimSpace(c); c != "" {
			tags = append(tags, c)
		}
	}

	return tags
}

// SourceName returns the feed host without a leading "www.".
func SourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return "Unknown Source"
	}

	return strings.TrimPrefix(u.Hostname(), "www.")
}

// StripHTML removes tags, unescapes entities and collapses whitespace.
func StripHTML(s string) string {
	s = htmlTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)

	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}
