package cache

import (
	"context"
	"sync"
	"time"
)

// cacheEntry holds a cached translation with its timestamp.
type cacheEntry struct {
	value     string
	timestamp time.Time
}

// InMemoryCache is a thread-safe in-memory cache with TTL support and an
// optional entry bound. Translating large documents produces one entry
// per chunk, so an unbounded cache can grow past memory on long-running
// servers; when the bound is hit the oldest entries are evicted.
type InMemoryCache struct {
	cache      map[string]cacheEntry
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
}

// NewInMemoryCache creates a new in-memory cache with the specified TTL.
// If ttlSeconds is 0 or negative, entries never expire.
func NewInMemoryCache(ttlSeconds int) *InMemoryCache {
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0 // No expiration
	}
	return &InMemoryCache{
		cache: make(map[string]cacheEntry),
		ttl:   ttl,
	}
}

// WithMaxEntries bounds the cache to n entries, evicting oldest first.
// n <= 0 leaves the cache unbounded. Returns the cache for chaining.
func (c *InMemoryCache) WithMaxEntries(n int) *InMemoryCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxEntries = n
	return c
}

// Get retrieves a cached translation.
// Returns the value and true if found and not expired, empty string and false otherwise.
func (c *InMemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	// Check TTL if enabled
	if c.ttl > 0 && time.Since(entry.timestamp) > c.ttl {
		// Entry expired - clean it up
		c.mu.Lock()
		delete(c.cache, key)
		c.mu.Unlock()
		return "", false
	}

	return entry.value, true
}

// Set stores a translation in the cache.
func (c *InMemoryCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[key] = cacheEntry{
		value:     value,
		timestamp: time.Now(),
	}
	if c.maxEntries > 0 && len(c.cache) > c.maxEntries {
		c.evictOldest(len(c.cache) - c.maxEntries)
	}
	return nil
}

// evictOldest removes the n oldest entries. Caller must hold the lock.
func (c *InMemoryCache) evictOldest(n int) {
	for ; n > 0; n-- {
		oldestKey := ""
		var oldest time.Time
		for key, entry := range c.cache {
			if oldestKey == "" || entry.timestamp.Before(oldest) {
				oldestKey = key
				oldest = entry.timestamp
			}
		}
		if oldestKey == "" {
			return
		}
		delete(c.cache, oldestKey)
	}
}

// Len returns the number of entries in the cache (including expired ones).
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Clear removes all entries from the cache.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

// Entries returns all non-expired entries as key-value pairs.
// This is used for cache export.
func (c *InMemoryCache) Entries() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]string)
	now := time.Now()

	for key, entry := range c.cache {
		// Skip expired entries
		if c.ttl > 0 && now.Sub(entry.timestamp) > c.ttl {
			continue
		}
		result[key] = entry.value
	}

	return result
}

// Verify InMemoryCache implements TranslationCache
var _ TranslationCache = (*InMemoryCache)(nil)
