package news

import (
	"regexp"
	"strings"
	"time"

	"github.com/formbricks/feedrank/internal/models"
)

const maxTasks = 5

type taskRule struct {
	verb    string
	pattern *regexp.Regexp
}

// Each rule captures the task text following its verb inside one sentence.
var taskRules = []taskRule{
	{"submit", regexp.MustCompile(`\b(?:submit|hand in|turn in|send)\s+([^.!?]*(?:assignment|homework|project|report|form|application)[^.!?]*)`)},
	{"complete", regexp.MustCompile(`\b(?:complete|finish)\s+([^.!?]*(?:assignment|homework|project|task)[^.!?]*)`)},
	{"attend", regexp.MustCompile(`\b(?:attend|go to|join)\s+([^.!?]*(?:meeting|event|class|session)[^.!?]*)`)},
	{"review", regexp.MustCompile(`\b(?:review|check|read)\s+([^.!?]*(?:document|email|message|proposal)[^.!?]*)`)},
	{"pay", regexp.MustCompile(`\b(?:pay|submit payment)\s+([^.!?]*(?:fee|bill|payment|invoice)[^.!?]*)`)},
	{"reply", regexp.MustCompile(`\b(?:reply|respond)\s+([^.!?]*(?:to|email|message)[^.!?]*)`)},
}

var (
	isoDate      = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	numericDate  = regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`)
	relativeDate = regexp.MustCompile(`\b(today|tomorrow)\b`)
	byClause     = regexp.MustCompile(`\bby\s+([^,.!?]+)`)
)

// ExtractTasks finds actionable phrases in text. Due dates are taken from the task phrase:
// ISO and numeric dates are kept, today and tomorrow are resolved against now, and a
// trailing "by <date>" is kept verbatim.
func ExtractTasks(text string, now time.Time) []models.Task {
	lowered := strings.ToLower(text)
	tasks := []models.Task{}

	for _, rule := range taskRules {
		for _, m := range rule.pattern.FindAllStringSubmatch(lowered, -1) {
			phrase := strings.TrimSpace(m[1])
			if phrase == "" {
				continue
			}

			tasks = append(tasks, models.Task{
				Verb:    rule.verb,
				DueDate: dueDate(phrase, now),
				Text:    phrase,
			})

			if len(tasks) == maxTasks {
				return tasks
			}
		}
	}

	return tasks
}

func dueDate(phrase string, now time.Time) string {
	if m := isoDate.FindStringSubmatch(phrase); m != nil {
		return m[1]
	}

	if m := numericDate.FindStringSubmatch(phrase); m != nil {
		return m[1]
	}

	if m := relativeDate.FindStringSubmatch(phrase); m != nil {
		day := now
		if m[1] == "tomorrow" {
			day = now.AddDate(0, 0, 1)
		}

		return day.Format(time.DateOnly)
	}

	if m := byClause.FindStringSubmatch(phrase); m != nil {
		return strings.TrimSpace(m[1])
	}

	return ""
}
