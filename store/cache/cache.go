// Package cache provides a small in-memory TTL cache used by the store
// to avoid re-reading hot rows such as tenant records.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Config holds the configuration for a Cache.
type Config struct {
	// DefaultTTL is applied by Set; SetWithTTL overrides it per entry.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept.
	// Zero disables the background sweeper.
	CleanupInterval time.Duration
	// MaxItems caps the cache size; the least recently used entry is
	// evicted when the cap is reached. Zero means unbounded.
	MaxItems int
	// OnEviction, when set, is called for every evicted or expired
	// entry. Called without the cache lock held.
	OnEviction func(key string, value any)
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
	element   *list.Element
}

// Cache is a thread-safe in-memory cache with TTL and LRU eviction.
type Cache struct {
	mu      sync.Mutex
	config  Config
	entries map[string]*entry
	order   *list.List // front is most recently used

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a cache and starts its cleanup goroutine when a cleanup
// interval is configured. Close must be called to stop it.
func New(config Config) *Cache {
	c := &Cache{
		config:  config,
		entries: make(map[string]*entry),
		order:   list.New(),
		done:    make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.cleanupLoop()
	}
	return c
}

// Get returns the value for key if present and not expired.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.removeLocked(e)
		c.mu.Unlock()
		c.notifyEviction(e)
		return nil, false
	}
	c.order.MoveToFront(e.element)
	value := e.value
	c.mu.Unlock()
	return value, true
}

// Set stores the value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores the value under key with an explicit TTL.
// A zero TTL means the entry never expires.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(e.element)
		c.mu.Unlock()
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	e.element = c.order.PushFront(e)
	c.entries[key] = e

	var evicted *entry
	if c.config.MaxItems > 0 && len(c.entries) > c.config.MaxItems {
		if back := c.order.Back(); back != nil {
			evicted = back.Value.(*entry)
			c.removeLocked(evicted)
		}
	}
	c.mu.Unlock()

	if evicted != nil {
		c.notifyEviction(evicted)
	}
}

// Delete removes the entry for key if present.
func (c *Cache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		c.removeLocked(e)
	}
	c.mu.Unlock()

	if ok {
		c.notifyEviction(e)
	}
}

// Len returns the number of entries currently stored, including any
// expired entries not yet swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. The cache stays usable after
// Close; entries simply stop being swept in the background.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Cache) removeLocked(e *entry) {
	c.order.Remove(e.element)
	delete(c.entries, e.key)
}

func (c *Cache) notifyEviction(e *entry) {
	if c.config.OnEviction != nil {
		c.config.OnEviction(e.key, e.value)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	var expired []*entry
	for _, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		c.removeLocked(e)
	}
	c.mu.Unlock()

	for _, e := range expired {
		c.notifyEviction(e)
	}
}
