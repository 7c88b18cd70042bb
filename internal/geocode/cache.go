package geocode

import (
	"sync"
	"time"

	"combiroute.fr/internal/clock"
)

// Cache is an explicit geocode cache keyed by query string. The owner
// configures its TTL and size policy; there is no package-level instance.
// Expired entries are dropped lazily on read and evicted wholesale once the
// entry count exceeds the cap.
type Cache struct {
	ttl        time.Duration
	maxEntries int
	clock      clock.Clock

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	point    Point
	storedAt time.Time
}

// NewCache creates a cache holding at most maxEntries results, each valid for
// ttl. A non-positive maxEntries disables the size cap; a non-positive ttl
// makes entries permanent.
func NewCache(ttl time.Duration, maxEntries int, clk clock.Clock) *Cache {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clk,
		entries:    make(map[string]cacheEntry),
	}
}

// Get returns the cached point for the query, if present and fresh.
func (c *Cache) Get(query string) (Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[query]
	if !ok {
		return Point{}, false
	}
	if c.ttl > 0 && c.clock.Now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, query)
		return Point{}, false
	}
	return entry.point, true
}

// Put stores the point for the query. When the cap is exceeded, expired
// entries are purged first; if the cache is still over the cap it is reset,
// which is acceptable for a best-effort lookaside cache.
func (c *Cache) Put(query string, p Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if c.ttl > 0 {
			for k, e := range c.entries {
				if now.Sub(e.storedAt) > c.ttl {
					delete(c.entries, k)
				}
			}
		}
		if len(c.entries) >= c.maxEntries {
			c.entries = make(map[string]cacheEntry)
		}
	}
	c.entries[query] = cacheEntry{point: p, storedAt: now}
}

// Len returns the current entry count, counting expired entries that have not
// been purged yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
