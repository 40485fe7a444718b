// Package cache provides a typed TTL cache with deduplicated
// population.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Cache stores values of one type under string keys. Expired entries
// are dropped lazily on read and swept on the cleanup interval.
type Cache[V any] struct {
	store *gocache.Cache
	group singleflight.Group
}

// New creates a cache. A value stored with a zero TTL uses defaultTTL.
func New[V any](defaultTTL, cleanupInterval time.Duration) *Cache[V] {
	return &Cache[V]{store: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns the value stored under key.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	raw, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	value, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return value, true
}

// Set stores value under key. A zero ttl uses the cache default, a
// negative ttl stores the value without expiry.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

// Has reports whether key holds an unexpired value.
func (c *Cache[V]) Has(key string) bool {
	_, ok := c.store.Get(key)
	return ok
}

// Del removes key.
func (c *Cache[V]) Del(key string) {
	c.store.Delete(key)
}

// GetOrSet returns the value under key, populating it with factory on a
// miss. Concurrent callers for the same key share a single factory
// call. A factory error is returned to every waiting caller and
// nothing is cached.
func (c *Cache[V]) GetOrSet(key string, ttl time.Duration, factory func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	raw, err, _ := c.group.Do(key, func() (interface{}, error) {
		if value, ok := c.Get(key); ok {
			return value, nil
		}
		value, err := factory()
		if err != nil {
			return nil, err
		}
		c.store.Set(key, value, ttl)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return raw.(V), nil
}
