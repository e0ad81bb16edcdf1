// Package connector holds the scheduling glue for content connectors.
package connector

import (
	"context"
	"log/slog"
	"time"
)

// PollingInputConnector is anything a Poller can drive.
type PollingInputConnector interface {
	Poll(ctx context.Context) error
}

// PollFunc adapts a function to PollingInputConnector.
type PollFunc func(ctx context.Context) error

// Poll calls f.
func (f PollFunc) Poll(ctx context.Context) error {
	return f(ctx)
}

// Poller calls a connector on a fixed interval.
type Poller struct {
	interval time.Duration
	name     string
	done     chan struct{}
}

// NewPoller creates a new poller with the specified interval and name
func NewPoller(interval time.Duration, name string) *Poller {
	return &Poller{
		interval: interval,
		name:     name,
		done:     make(chan struct{}),
	}
}

// Start polls once immediately, then every interval, until ctx is cancelled.
// A failed poll is logged and does not stop the loop.
func (p *Poller) Start(ctx context.Context, connector PollingInputConnector) {
	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		slog.Info("Starting connector poller",
			"name", p.name,
			"poll_interval", p.interval,
		)

		p.poll(ctx, connector)

		for {
			select {
			case <-ctx.Done():
				slog.Info("Connector poller shutting down", "name", p.name)

				return
			case <-ticker.C:
				p.poll(ctx, connector)
			}
		}
	}()
}

// Done is closed once the polling goroutine has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) poll(ctx context.Context, connector PollingInputConnector) {
	if err := connector.Poll(ctx); err != nil {
		slog.Error("Poll failed",
			"name", p.name,
			"error", err,
		)
	}
}
