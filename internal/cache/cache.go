// Package cache provides a small in-memory TTL cache used to serve the
// read-mostly client and rule snapshots to concurrent routing workflows.
package cache

import (
	"sync"
	"time"
)

// item is a cached value with its expiration time.
type item struct {
	data      interface{}
	expiresAt time.Time
}

// Cache is a concurrency-safe in-memory cache with per-entry TTL.
type Cache struct {
	items map[string]item
	mutex sync.RWMutex
}

// New creates a new cache instance
func New() *Cache {
	return &Cache{
		items: make(map[string]item),
	}
}

// Get retrieves an item from the cache. Expired entries are treated as
// misses; they are overwritten by the next Set.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	it, exists := c.items[key]
	if !exists || time.Now().After(it.expiresAt) {
		return nil, false
	}
	return it.data, true
}

// Set stores an item in the cache with TTL
func (c *Cache) Set(key string, data interface{}, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = item{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]item)
}
