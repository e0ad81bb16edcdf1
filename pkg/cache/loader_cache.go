// Package cache provides a generic loader cache: a size- and TTL-bounded LRU in front of a
// load callback, with singleflight so concurrent misses for one key share a single load.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Options tunes a LoaderCache.
type Options struct {
	// TTL bounds how long an entry is served. Zero keeps entries until evicted by size.
	TTL time.Duration
	// OnEvict is called with the string key whenever an entry leaves the cache.
	OnEvict func(key string)
}

// LoaderCache loads values on miss via a callback. Keys are converted to strings with
// keyToString for both the LRU and the singleflight group.
type LoaderCache[K comparable, V any] struct {
	lru         *expirable.LRU[string, V]
	group       singleflight.Group
	keyToString func(K) string
}

// NewLoaderCache creates a loader cache holding at most maxEntries values.
func NewLoaderCache[K comparable, V any](maxEntries int, keyToString func(K) string, opts Options) *LoaderCache[K, V] {
	var onEvict func(string, V)
	if opts.OnEvict != nil {
		onEvict = func(k string, _ V) { opts.OnEvict(k) }
	}

	return &LoaderCache[K, V]{
		lru:         expirable.NewLRU[string, V](maxEntries, onEvict, opts.TTL),
		keyToString: keyToString,
	}
}

// Get returns the value for key, loading it via load on a miss. The boolean reports a cache hit.
// Failed loads are not cached.
func (c *LoaderCache[K, V]) Get(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, bool, error) {
	keyStr := c.keyToString(key)
	if v, ok := c.lru.Get(keyStr); ok {
		return v, true, nil
	}

	val, err, _ := c.group.Do(keyStr, func() (any, error) {
		loaded, loadErr := load(ctx, key)
		if loadErr != nil {
			return nil, loadErr
		}

		c.lru.Add(keyStr, loaded)

		return loaded, nil
	})
	if err != nil {
		var zero V

		return zero, false, err
	}

	return val.(V), false, nil
}

// Put stores value under key, replacing any existing entry.
func (c *LoaderCache[K, V]) Put(key K, value V) {
	c.lru.Add(c.keyToString(key), value)
}

// Peek returns a cached value without loading.
func (c *LoaderCache[K, V]) Peek(key K) (V, bool) {
	return c.lru.Peek(c.keyToString(key))
}

// Invalidate removes the entry for key.
func (c *LoaderCache[K, V]) Invalidate(key K) {
	c.lru.Remove(c.keyToString(key))
}

// InvalidateAll removes all entries.
func (c *LoaderCache[K, V]) InvalidateAll() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *LoaderCache[K, V]) Len() int {
	return c.lru.Len()
}
