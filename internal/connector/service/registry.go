// Package service holds connector plumbing shared by every source: the registry the sync
// worker fans out over and the per-user limiter for manual sync requests.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Connector is a pull-based content source.
type Connector interface {
	Name() string
	SyncUser(ctx context.Context, userID string) error
	SyncAll(ctx context.Context) error
}

// Registry manages the configured connectors
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

// NewRegistry creates a new connector registry
func NewRegistry() *Registry {
	return &Registry{
		connectors: make(map[string]Connector),
	}
}

// Register adds a connector. Names must be unique.
func (r *Registry) Register(c Connector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connectors[c.Name()]; exists {
		return fmt.Errorf("connector %q is already registered", c.Name())
	}

	r.connectors[c.Name()] = c
	slog.Info("Registered connector", "name", c.Name())

	return nil
}

// Get returns the connector registered under name.
func (r *Registry) Get(name string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.connectors[name]

	return c, ok
}

// GetRegisteredNames returns all registered connector names, sorted
func (r *Registry) GetRegisteredNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// SyncUser runs SyncUser on every connector and joins their errors.
func (r *Registry) SyncUser(ctx context.Context, userID string) error {
	return r.each(func(c Connector) error {
		return c.SyncUser(ctx, userID)
	})
}

// SyncAll runs SyncAll on every connector and joins their errors.
func (r *Registry) SyncAll(ctx context.Context) error {
	return r.each(func(c Connector) error {
		return c.SyncAll(ctx)
	})
}

func (r *Registry) each(fn func(Connector) error) error {
	var errs []error

	for _, name := range r.GetRegisteredNames() {
		c, ok := r.Get(name)
		if !ok {
			continue
		}

		if err := fn(c); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}
