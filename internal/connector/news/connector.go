// Package news is the RSS/Atom connector. It fetches each subscribed feed, turns entries
// into news content items and hands them to the ingest service.
package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/formbricks/feedrank/internal/models"
	"github.com/formbricks/feedrank/internal/observability"
	"github.com/formbricks/feedrank/internal/service"
)

// Name is the connector name used in routes and metrics.
const Name = "news"

// FeedFetcher downloads and parses one feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error)
}

// Ingester stores a user's items.
type Ingester interface {
	IngestBatch(ctx context.Context, userID string, items []*models.ContentItem) service.IngestStats
}

// Config holds configuration for the news connector
type Config struct {
	Fetcher       FeedFetcher
	Ingester      Ingester
	Subscriptions []Subscription
	Metrics       observability.ConnectorMetrics
	Logger        *slog.Logger
}

// Connector syncs RSS subscriptions into the content store.
type Connector struct {
	fetcher  FeedFetcher
	ingester Ingester
	subs     []Subscription
	metrics  observability.ConnectorMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewConnector creates a news connector
func NewConnector(cfg Config) *Connector {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Connector{
		fetcher:  cfg.Fetcher,
		ingester: cfg.Ingester,
		subs:     cfg.Subscriptions,
		metrics:  cfg.Metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Name returns the connector name.
func (c *Connector) Name() string {
	return Name
}

// SyncUser fetches every feed userID subscribes to. A user without subscriptions is a no-op.
func (c *Connector) SyncUser(ctx context.Context, userID string) error {
	var subs []Subscription

	for _, s := range c.subs {
		if s.UserID == userID {
			subs = append(subs, s)
		}
	}

	return c.syncUser(ctx, userID, subs)
}

// SyncAll fetches every subscription, one user at a time.
func (c *Connector) SyncAll(ctx context.Context) error {
	byUser := make(map[string][]Subscription)
	order := []string{}

	for _, s := range c.subs {
		if _, ok := byUser[s.UserID]; !ok {
			order = append(order, s.UserID)
		}

		byUser[s.UserID] = append(byUser[s.UserID], s)
	}

	var errs []error

	for _, userID := range order {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.syncUser(ctx, userID, byUser[userID]); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// syncUser ingests all entries from subs in one batch. It fails only when every feed failed.
func (c *Connector) syncUser(ctx context.Context, userID string, subs []Subscription) error {
	if len(subs) == 0 {
		return nil
	}

	var (
		items []*models.ContentItem
		errs  []error
	)

	for _, sub := range subs {
		fetched, err := c.fetch(ctx, sub)
		if err != nil {
			c.logger.WarnContext(ctx, "news sync: fetch failed", "user_id", userID, "url", sub.URL, "error", err)

			if c.metrics != nil {
				c.metrics.RecordFetchFailure(ctx, Name)
			}

			errs = append(errs, err)

			continue
		}

		if c.metrics != nil {
			c.metrics.RecordItemsFetched(ctx, Name, len(fetched))
		}

		items = append(items, fetched...)
	}

	if len(errs) == len(subs) {
		return fmt.Errorf("sync news for %s: %w", userID, errors.Join(errs...))
	}

	stats := c.ingester.IngestBatch(ctx, userID, items)

	c.logger.InfoContext(ctx, "news sync: done",
		"user_id", userID,
		"feeds", len(subs),
		"failed_feeds", len(errs),
		"saved", stats.Saved,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)

	return nil
}

func (c *Connector) fetch(ctx context.Context, sub Subscription) ([]*models.ContentItem, error) {
	feed, err := c.fetcher.Fetch(ctx, sub.URL)
	if err != nil {
		return nil, err
	}

	entries := feed.Items
	if sub.MaxItems > 0 && len(entries) > sub.MaxItems {
		entries = entries[:sub.MaxItems]
	}

	now := c.now()
	items := make([]*models.ContentItem, 0, len(entries))

	for _, entry := range entries {
		if entry == nil {
			continue
		}

		items = append(items, TransformEntry(entry, sub.URL, now))
	}

	return items, nil
}
