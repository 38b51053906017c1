// Package cache provides the TTL caches shared by the search strategies and
// the candidate parser: an in-memory cache with per-key in-flight dedup, and
// a sqlite-backed cache for fetched detail pages.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type inflight[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Cache is a key -> value store with TTL and atomic get-or-fetch. Concurrent
// GetOrFetch calls for the same key share a single underlying fetch; errors
// are never cached.
type Cache[V any] struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]entry[V]
	calls   map[string]*inflight[V]
}

// New creates a Cache with the given TTL. A non-positive TTL disables
// expiry (entries live for the process lifetime).
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		calls:   make(map[string]*inflight[V]),
	}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Cache[V]) getLocked(key string) (V, bool) {
	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores a value under key with the cache TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

func (c *Cache[V]) setLocked(key string, value V) {
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}
	c.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
}

// GetOrFetch returns the cached value for key, or runs fetch exactly once for
// all concurrent callers and caches its result. A caller whose context ends
// while waiting gets the context error; the fetch itself keeps running for
// the others.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	if v, ok := c.getLocked(key); ok {
		c.mu.Unlock()
		return v, nil
	}
	if call, ok := c.calls[key]; ok {
		c.mu.Unlock()
		return c.wait(ctx, call)
	}

	call := &inflight[V]{done: make(chan struct{})}
	c.calls[key] = call
	c.mu.Unlock()

	call.value, call.err = fetch(ctx)

	c.mu.Lock()
	delete(c.calls, key)
	if call.err == nil {
		c.setLocked(key, call.value)
	}
	c.mu.Unlock()

	close(call.done)
	return call.value, call.err
}

func (c *Cache[V]) wait(ctx context.Context, call *inflight[V]) (V, error) {
	select {
	case <-call.done:
		return call.value, call.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops all entries.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}
