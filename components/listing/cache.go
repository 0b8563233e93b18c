package listing

import (
	"strings"
	"sync"
	"time"
)

// DefaultCacheTTL keeps fetched pages fresh for a short while.
const DefaultCacheTTL = 30 * time.Second

type cacheEntry[T any] struct {
	page      Page[T]
	expiresAt time.Time
}

// Cache memoizes pages by query key with a TTL.
type Cache[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry[T]
	now     func() time.Time
}

// NewCache builds a cache. A non-positive ttl uses DefaultCacheTTL.
func NewCache[T any](ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache[T]{
		ttl:     ttl,
		entries: map[string]cacheEntry[T]{},
		now:     time.Now,
	}
}

// Get returns a fresh page for key.
func (c *Cache[T]) Get(key string) (Page[T], bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return Page[T]{}, false
	}
	return entry.page, true
}

// Set stores page under key.
func (c *Cache[T]) Set(key string, page Page[T]) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[T]{page: page, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// InvalidateNamespace drops every key built for namespace.
func (c *Cache[T]) InvalidateNamespace(namespace string) {
	prefix := namespace + "?"
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
