package build

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/conneroisu/sfcloader/internal/descriptor"
)

// Cache memoises parsed descriptors and generated modules across builds.
// Entries expire after the configured TTL and the least recently used ones
// are evicted once a cache holds size entries. A zero size disables caching.
type Cache struct {
	descriptors *expirable.LRU[string, *descriptor.Descriptor]
	modules     *expirable.LRU[string, string]

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is a point-in-time view of cache effectiveness.
type CacheStats struct {
	Descriptors int
	Modules     int
	Hits        int64
	Misses      int64
}

// HitRate returns hits as a percentage of lookups.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// NewCache creates a cache holding up to size descriptors and size modules.
func NewCache(size int, ttl time.Duration) *Cache {
	c := &Cache{}
	if size > 0 {
		c.descriptors = expirable.NewLRU[string, *descriptor.Descriptor](size, nil, ttl)
		c.modules = expirable.NewLRU[string, string](size, nil, ttl)
	}
	return c
}

// CacheKey joins the parts that identify one cached artefact: a content
// hash, the request query and the build mode.
func CacheKey(parts ...string) string {
	return strings.Join(parts, "\x00")
}

// Descriptor returns a cached descriptor.
func (c *Cache) Descriptor(key string) (*descriptor.Descriptor, bool) {
	if c == nil || c.descriptors == nil {
		return nil, false
	}
	return record(c, c.descriptors, key)
}

// StoreDescriptor caches a parsed descriptor.
func (c *Cache) StoreDescriptor(key string, desc *descriptor.Descriptor) {
	if c == nil || c.descriptors == nil {
		return
	}
	c.descriptors.Add(key, desc)
}

// Module returns cached generated code.
func (c *Cache) Module(key string) (string, bool) {
	if c == nil || c.modules == nil {
		return "", false
	}
	return record(c, c.modules, key)
}

// StoreModule caches generated code.
func (c *Cache) StoreModule(key, code string) {
	if c == nil || c.modules == nil {
		return
	}
	c.modules.Add(key, code)
}

func record[V any](c *Cache, lru *expirable.LRU[string, V], key string) (V, bool) {
	v, ok := lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Purge drops every entry and resets the counters.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	if c.descriptors != nil {
		c.descriptors.Purge()
		c.modules.Purge()
	}
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns the current cache statistics.
func (c *Cache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	stats := CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if c.descriptors != nil {
		stats.Descriptors = c.descriptors.Len()
		stats.Modules = c.modules.Len()
	}
	return stats
}
