package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/formbricks/feedrank/internal/datatypes"
)

// Notification channels, used as the metrics label.
const (
	ChannelWebhook = "webhook"
	ChannelLog     = "log"
)

// Notification is sent for an item whose rerank score reached the notify threshold.
type Notification struct {
	UserID   string             `json:"user_id"`
	ItemID   uuid.UUID          `json:"item_id"`
	Title    string             `json:"title"`
	Body     string             `json:"body"`
	Priority datatypes.Priority `json:"priority"`
	Score    float64            `json:"score"`
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	Channel() string
}

// WebhookNotifier POSTs each notification as JSON to a fixed URL.
type WebhookNotifier struct {
	url    string
	token  string
	client *retryablehttp.Client
}

// NewWebhookNotifier creates a notifier for url. token, when set, is sent as a bearer token.
// Redirects are not followed.
func NewWebhookNotifier(url, token string) *WebhookNotifier {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = 10 * time.Second
	retryClient.RetryMax = 3
	retryClient.Logger = nil
	retryClient.HTTPClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &WebhookNotifier{url: url, token: token, client: retryClient}
}

// Channel implements Notifier.
func (w *WebhookNotifier) Channel() string { return ChannelWebhook }

// Notify sends n and fails on any non-2xx response.
func (w *WebhookNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close notification response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned non-2xx status: %d", resp.StatusCode)
	}

	return nil
}

// LogNotifier writes notifications to the log. Used when no webhook is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogNotifier{logger: logger}
}

// Channel implements Notifier.
func (l *LogNotifier) Channel() string { return ChannelLog }

// Notify implements Notifier.
func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.logger.InfoContext(ctx, "notification",
		"user_id", n.UserID,
		"item_id", n.ItemID,
		"title", n.Title,
		"priority", n.Priority.String(),
		"score", n.Score,
	)

	return nil
}
