package news

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultMaxItems = 20

// Subscription is one feed a user follows.
type Subscription struct {
	UserID   string `yaml:"user_id"`
	URL      string `yaml:"url"`
	MaxItems int    `yaml:"max_items"`
}

type subscriptionsFile struct {
	Feeds []Subscription `yaml:"feeds"`
}

// LoadSubscriptions reads the feeds file at path. An empty path yields no subscriptions.
func LoadSubscriptions(path string) ([]Subscription, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feeds file: %w", err)
	}

	return ParseSubscriptions(data)
}

// ParseSubscriptions decodes and validates a feeds document.
func ParseSubscriptions(data []byte) ([]Subscription, error) {
	var doc subscriptionsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing feeds file: %w", err)
	}

	var errs []error

	subs := make([]Subscription, 0, len(doc.Feeds))

	for i, s := range doc.Feeds {
		s.UserID = strings.TrimSpace(s.UserID)
		s.URL = strings.TrimSpace(s.URL)

		if s.UserID == "" {
			errs = append(errs, fmt.Errorf("feeds[%d]: user_id is required", i))

			continue
		}

		u, err := url.Parse(s.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("feeds[%d]: invalid url %q", i, s.URL))

			continue
		}

		if s.MaxItems <= 0 {
			s.MaxItems = defaultMaxItems
		}

		subs = append(subs, s)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return subs, nil
}
