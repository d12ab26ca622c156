package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// singleflightFetchTimeout is the maximum time a cache-miss fetch is
// allowed to run. The fetch runs on context.WithoutCancel so that one
// caller's cancellation does not fail every waiter sharing the key.
const singleflightFetchTimeout = 30 * time.Second

// ttlCache is a string-keyed cache whose entries expire after ttl.
// Concurrent misses for the same key share a single fetch.
type ttlCache[V any] struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]ttlEntry[V]
	flights singleflight.Group
}

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func newTTLCache[V any](ttl time.Duration, now func() time.Time) *ttlCache[V] {
	return &ttlCache[V]{
		ttl:     ttl,
		now:     now,
		entries: map[string]ttlEntry[V]{},
	}
}

// get returns the cached value of key, calling fetch on a miss or
// after expiry. Errors are not cached.
func (c *ttlCache[V]) get(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	v, err, _ := c.flights.Do(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), singleflightFetchTimeout)
		defer cancel()

		value, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = ttlEntry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
		c.mu.Unlock()

		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// evictExpired removes expired entries and returns how many were
// removed.
func (c *ttlCache[V]) evictExpired() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

func (c *ttlCache[V]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
