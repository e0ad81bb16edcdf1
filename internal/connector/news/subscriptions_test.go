package news

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubscriptions(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		subs, err := ParseSubscriptions([]byte(`
feeds:
  - user_id: u1
    url: https://techcrunch.com/feed/
    max_items: 5
  - user_id: u2
    url: https://hnrss.org/frontpage
`))
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, Subscription{UserID: "u1", URL: "https://techcrunch.com/feed/", MaxItems: 5}, subs[0])
		assert.Equal(t, defaultMaxItems, subs[1].MaxItems)
	})

	t.Run("rejects missing user and bad url", func(t *testing.T) {
		_, err := ParseSubscriptions([]byte(`
feeds:
  - url: https://example.com/feed
  - user_id: u1
    url: ftp://example.com/feed
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "feeds[0]: user_id is required")
		assert.Contains(t, err.Error(), "feeds[1]: invalid url")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParseSubscriptions([]byte("feeds: ["))
		assert.Error(t, err)
	})
}

func TestLoadSubscriptions(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		subs, err := LoadSubscriptions("")
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "feeds.yaml")
		require.NoError(t, os.WriteFile(path, []byte("feeds:\n  - user_id: u1\n    url: https://example.com/rss\n"), 0o600))

		subs, err := LoadSubscriptions(path)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "u1", subs[0].UserID)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSubscriptions(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
