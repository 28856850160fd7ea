package cache

import (
	"sync"
	"time"

	"github.com/shadematch/backend/internal/domain"
)

// cacheItem is a single cached value with its write timestamp. Expiry is
// evaluated against the timestamp on read so the TTL can be changed at
// runtime without rewriting entries.
type cacheItem struct {
	value    any
	storedAt time.Time
}

// MemoryCache is a thread-safe in-memory cache. Entries expire individually
// once they are older than the cache TTL; expired entries are treated as
// absent. The clock is injectable so tests can control expiry
// deterministically.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]cacheItem
	ttl  time.Duration
	now  func() time.Time
}

// DefaultTTL bounds catalog staleness when no TTL is configured.
const DefaultTTL = 5 * time.Minute

// NewMemoryCache creates an in-memory cache with the given TTL. A
// non-positive TTL falls back to DefaultTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &MemoryCache{
		data: make(map[string]cacheItem),
		ttl:  ttl,
		now:  time.Now,
	}

	// Evict stale entries in the background so a long-lived process does not
	// accumulate dead catalog snapshots.
	go c.cleanupExpired()

	return c
}

// WithClock replaces the cache's clock. For tests.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Get retrieves a value. Absent or expired entries return ErrCacheMiss.
func (c *MemoryCache) Get(key string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}
	if c.now().Sub(item.storedAt) >= c.ttl {
		return nil, domain.ErrCacheMiss
	}
	return item.value, nil
}

// Set stores a value with the current timestamp.
func (c *MemoryCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cacheItem{value: value, storedAt: c.now()}
}

// Delete removes a single entry.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear removes all entries.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]cacheItem)
}

// Keys returns all stored keys, including ones that have expired but not yet
// been evicted.
func (c *MemoryCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// Size returns the current number of stored entries.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// SetTTL changes the cache TTL. Existing entries are re-evaluated against
// the new TTL on their next read.
func (c *MemoryCache) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// TTL returns the current TTL.
func (c *MemoryCache) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}

// cleanupExpired periodically removes expired entries.
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := c.now()
		for key, item := range c.data {
			if now.Sub(item.storedAt) >= c.ttl {
				delete(c.data, key)
			}
		}
		c.mu.Unlock()
	}
}
