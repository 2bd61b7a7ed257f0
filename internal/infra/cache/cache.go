// Package cache provides a thread-safe in-memory TTL cache used for wizard
// sessions and category listings.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory cache with TTL.
type InMemory[T any] struct {
	mu      sync.RWMutex
	items   map[string]entry[T]
	ttl     time.Duration
	sliding bool
	stop    chan struct{}
	once    sync.Once
}

// Option configures an InMemory cache.
type Option func(*cacheOptions)

type cacheOptions struct {
	sliding bool
}

// WithSlidingExpiry makes GetOrSet push the expiry of an entry forward on
// every access, so entries only expire after ttl of inactivity.
func WithSlidingExpiry() Option {
	return func(o *cacheOptions) { o.sliding = true }
}

// New creates a new in-memory cache with the given TTL.
func New[T any](ttl time.Duration, opts ...Option) *InMemory[T] {
	var o cacheOptions
	for _, opt := range opts {
		opt(&o)
	}
	c := &InMemory[T]{
		items:   make(map[string]entry[T]),
		ttl:     ttl,
		sliding: o.sliding,
		stop:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value in the cache with the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// GetOrSet returns the live value under key, or stores and returns the
// result of create. create runs under the write lock, so at most one value
// is ever created per key.
func (c *InMemory[T]) GetOrSet(key string, create func() T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	e, ok := c.items[key]
	if ok && !now.After(e.expiresAt) {
		if c.sliding {
			e.expiresAt = now.Add(c.ttl)
			c.items[key] = e
		}
		return e.value
	}

	v := create()
	c.items[key] = entry[T]{value: v, expiresAt: now.Add(c.ttl)}
	return v
}

// Delete removes a value from the cache.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// DeletePrefix removes every key starting with prefix.
func (c *InMemory[T]) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
}

// Len counts live entries.
func (c *InMemory[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	now := time.Now()
	for _, e := range c.items {
		if !now.After(e.expiresAt) {
			n++
		}
	}
	return n
}

// Close stops the background cleanup goroutine.
func (c *InMemory[T]) Close() {
	c.once.Do(func() { close(c.stop) })
}

// cleanup periodically removes expired entries.
func (c *InMemory[T]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, v := range c.items {
				if now.After(v.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
