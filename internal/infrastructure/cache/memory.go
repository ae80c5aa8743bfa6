package cache

import (
	"context"
	"sync"
	"time"

	"github.com/receiptly/backend/internal/domain"
)

// cacheItem is a single stored match result with expiration
type cacheItem struct {
	Result     domain.MatchResult
	Expiration time.Time
}

// MemoryCache is a thread-safe in-memory result cache with TTL support.
// Receipts repeat identical lines often (weekly orders from the same
// vendor); caching the verdict avoids recomputing the fuzzy scan.
type MemoryCache struct {
	data  map[string]cacheItem
	ttl   time.Duration
	mutex sync.RWMutex
}

// NewMemoryCache creates an in-memory cache whose entries live for ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
		ttl:  ttl,
	}

	// Cleanup goroutine removes expired entries every 10 minutes
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a cached match result. A copy is returned so callers
// cannot mutate the stored value.
func (c *MemoryCache) Get(ctx context.Context, key string) (*domain.MatchResult, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	if time.Now().After(item.Expiration) {
		return nil, domain.ErrCacheMiss
	}

	result := item.Result
	return &result, nil
}

// Set stores a match result under the given key.
func (c *MemoryCache) Set(ctx context.Context, key string, result *domain.MatchResult) error {
	if result == nil {
		return nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		Result:     *result,
		Expiration: time.Now().Add(c.ttl),
	}
	return nil
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, item := range c.data {
			if now.After(item.Expiration) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}
