// Package cache provides an in-memory map whose entries expire after a
// fixed TTL and are removed by a periodic sweep.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTL is safe for concurrent use.
type TTL[V any] struct {
	mu      sync.RWMutex
	items   map[string]entry[V]
	ttl     time.Duration
	sweep   time.Duration
	nowFunc func() time.Time
}

// New creates a cache whose entries live for ttl. Run sweeps every sweep.
func New[V any](ttl, sweep time.Duration) *TTL[V] {
	return &TTL[V]{
		items:   make(map[string]entry[V]),
		ttl:     ttl,
		sweep:   sweep,
		nowFunc: time.Now,
	}
}

// Get returns a live entry.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || !c.nowFunc().Before(e.expires) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, expires: c.nowFunc().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes key.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len counts stored entries, expired or not.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Sweep drops expired entries and returns how many were removed.
func (c *TTL[V]) Sweep() int {
	now := c.nowFunc()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.items {
		if !now.Before(e.expires) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Run sweeps on the configured interval until ctx is done.
func (c *TTL[V]) Run(ctx context.Context) {
	if c.sweep <= 0 {
		return
	}
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
