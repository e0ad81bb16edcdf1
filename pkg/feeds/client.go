// Package feeds fetches and parses RSS and Atom feeds over a retrying HTTP client.
package feeds

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mmcdole/gofeed"
)

const defaultUserAgent = "feedrank/1.0 (+https://github.com/formbricks/feedrank)"

// maxFeedBytes bounds how much of a feed body is parsed.
const maxFeedBytes = 10 << 20

// ClientOptions configures the feed client
type ClientOptions struct {
	// RetryMax is the maximum number of retries (default: 3)
	RetryMax int
	// Timeout is the HTTP client timeout (default: 15 seconds)
	Timeout time.Duration
	// UserAgent is sent with every request
	UserAgent string
}

// Client fetches feeds
type Client struct {
	httpClient *retryablehttp.Client
	parser     *gofeed.Parser
	userAgent  string
}

// NewClient creates a feed client with default settings
func NewClient() *Client {
	return NewClientWithOptions(ClientOptions{})
}

// NewClientWithOptions creates a feed client with custom options
func NewClientWithOptions(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}

	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}

	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil

	return &Client{
		httpClient: retryClient,
		parser:     gofeed.NewParser(),
		userAgent:  opts.UserAgent,
	}
}

// Fetch downloads feedURL and parses it as RSS, Atom or JSON Feed.
func (c *Client) Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", feedURL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", feedURL, resp.StatusCode)
	}

	feed, err := c.parser.Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}

	return feed, nil
}
