package api

import (
	"sync"
	"sync/atomic"
	"time"
)

// ResponseCache holds rendered responses for the current state version.
// Each resource keeps at most one entry. When a newer version is stored,
// entries rendered for older versions are dropped, and late writes for an
// older version are ignored.
type ResponseCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	order      []string // resources, least recently used first
	version    uint64   // newest version stored
	maxEntries int
	ttl        time.Duration

	hits       atomic.Int64
	misses     atomic.Int64
	superseded atomic.Int64
}

type cacheEntry struct {
	version   uint64
	data      []byte
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Version    uint64  `json:"version"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Superseded int64   `json:"superseded"`
	HitRate    float64 `json:"hit_rate"`
}

// NewResponseCache creates a cache holding up to maxEntries resources. A
// zero ttl never expires entries.
func NewResponseCache(maxEntries int, ttl time.Duration) *ResponseCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &ResponseCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get returns the response for resource rendered at version, or nil.
func (c *ResponseCache) Get(resource string, version uint64) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[resource]
	switch {
	case !ok, e.version != version:
		c.misses.Add(1)
		return nil
	case c.ttl > 0 && time.Since(e.createdAt) > c.ttl:
		c.remove(resource)
		c.misses.Add(1)
		return nil
	}

	c.touch(resource)
	c.hits.Add(1)
	return e.data
}

// Put stores data for resource at version. It reports false when version is
// older than one already stored.
func (c *ResponseCache) Put(resource string, version uint64, data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if version < c.version {
		return false
	}
	if version > c.version {
		c.version = version
		c.dropBefore(version)
	}

	if _, ok := c.entries[resource]; !ok {
		for len(c.order) >= c.maxEntries {
			c.remove(c.order[0])
		}
	}
	c.entries[resource] = &cacheEntry{version: version, data: data, createdAt: time.Now()}
	c.touch(resource)
	return true
}

// Stats returns cache performance statistics.
func (c *ResponseCache) Stats() CacheStats {
	c.mu.Lock()
	st := CacheStats{Entries: len(c.entries), MaxEntries: c.maxEntries, Version: c.version}
	c.mu.Unlock()

	st.Hits = c.hits.Load()
	st.Misses = c.misses.Load()
	st.Superseded = c.superseded.Load()
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total)
	}
	return st
}

func (c *ResponseCache) dropBefore(version uint64) {
	kept := c.order[:0]
	for _, r := range c.order {
		if c.entries[r].version < version {
			delete(c.entries, r)
			c.superseded.Add(1)
			continue
		}
		kept = append(kept, r)
	}
	c.order = kept
}

func (c *ResponseCache) touch(resource string) {
	for i, r := range c.order {
		if r == resource {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, resource)
}

func (c *ResponseCache) remove(resource string) {
	delete(c.entries, resource)
	for i, r := range c.order {
		if r == resource {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
