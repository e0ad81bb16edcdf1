package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConnector struct {
	name  string
	err   error
	users []string
	all   int
}

func (s *stubConnector) Name() string { return s.name }

func (s *stubConnector) SyncUser(_ context.Context, userID string) error {
	s.users = append(s.users, userID)

	return s.err
}

func (s *stubConnector) SyncAll(context.Context) error {
	s.all++

	return s.err
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	t.Run("registers connector", func(t *testing.T) {
		require.NoError(t, registry.Register(&stubConnector{name: "news"}))
		assert.Equal(t, []string{"news"}, registry.GetRegisteredNames())

		c, ok := registry.Get("news")
		assert.True(t, ok)
		assert.Equal(t, "news", c.Name())
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		assert.Error(t, registry.Register(&stubConnector{name: "news"}))
	})

	t.Run("unknown connector", func(t *testing.T) {
		_, ok := registry.Get("gmail")
		assert.False(t, ok)
	})
}

func TestRegistry_Sync(t *testing.T) {
	ctx := context.Background()
	news := &stubConnector{name: "news"}
	broken := &stubConnector{name: "reddit", err: errors.New("upstream down")}

	registry := NewRegistry()
	require.NoError(t, registry.Register(news))
	require.NoError(t, registry.Register(broken))

	err := registry.SyncUser(ctx, "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reddit: upstream down")
	assert.Equal(t, []string{"u1"}, news.users)
	assert.Equal(t, []string{"u1"}, broken.users)

	news.err = nil
	broken.err = nil
	require.NoError(t, registry.SyncAll(ctx))
	assert.Equal(t, 1, news.all)
	assert.Equal(t, 1, broken.all)
}
