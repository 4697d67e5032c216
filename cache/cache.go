// Package cache provides an in-memory key/value cache with per-entry expiry.
//
// Expiry is checked lazily on read. There is no background sweep and no size
// bound; callers are expected to cache small, bounded data sets and to Remove
// keys after every write that could make them stale.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is used by Set when ttl <= 0.
const DefaultTTL = 5 * time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Stats reports the number of entries held by a cache.
type Stats struct {
	TotalEntries   int `json:"totalEntries"`
	ActiveEntries  int `json:"activeEntries"`
	ExpiredEntries int `json:"expiredEntries"`
}

// Observer is notified about cache lookups.
type Observer interface {
	Hit(key string)
	Miss(key string)
}

type Option func(*options)

type options struct {
	now      func() time.Time
	ttl      time.Duration
	observer Observer
}

// WithClock replaces time.Now as the cache's time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithDefaultTTL overrides DefaultTTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithObserver registers an Observer for hits and misses.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Cache is safe for concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	opts    options
}

func New[V any](opts ...Option) *Cache[V] {
	o := options{now: time.Now, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{entries: make(map[string]entry[V]), opts: o}
}

// Get returns the value stored under key if it has not expired.
// An expired entry is evicted as a side effect of the miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	v, ok := c.lookup(key)
	c.mu.Unlock()

	if c.opts.observer != nil {
		if ok {
			c.opts.observer.Hit(key)
		} else {
			c.opts.observer.Miss(key)
		}
	}
	return v, ok
}

// Set stores value under key until now+ttl.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.opts.ttl
	}
	now := c.opts.now()

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
}

// Has reports whether key holds a live entry, evicting it if expired.
func (c *Cache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.lookup(key)
	return ok
}

func (c *Cache[V]) Remove(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

func (c *Cache[V]) Stats() Stats {
	now := c.opts.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{TotalEntries: len(c.entries)}
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			stats.ExpiredEntries++
		} else {
			stats.ActiveEntries++
		}
	}
	return stats
}

// lookup must be called with c.mu held.
func (c *Cache[V]) lookup(key string) (V, bool) {
	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.opts.now().After(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}
