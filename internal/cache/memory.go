package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// maxMemoryEntry caps what the resident layer will hold. efetch bodies
// for a prolific author run to megabytes; those stay on disk and only
// small payloads are kept in memory between requests.
const maxMemoryEntry = 1 << 20

// MemoryCache keeps responses for the lifetime of the process. Within one
// run it absorbs the repeat requests a retried researcher would cause.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates an in-memory cache with the given default TTL
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	body, ok := val.([]byte)
	if !ok {
		return nil, false
	}
	return body, true
}

// Set stores a value with the given TTL (0 = default TTL). Values over
// maxMemoryEntry are not stored; lookups fall through to the disk layer.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if len(value) > maxMemoryEntry {
		return nil
	}
	c.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
