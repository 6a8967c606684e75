package eligibility

import (
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// Clock abstracts time so cache expiry can be driven from tests
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

type entry struct {
	value      interface{}
	insertedAt time.Time
}

// TTLCache stores (value, insertedAt) pairs and treats an entry as absent once
// clock.Now() - insertedAt >= ttl. Expiry is decided by the injected clock, not
// by go-cache's own timers.
type TTLCache struct {
	items *cache.Cache
	ttl   time.Duration
	clock Clock
	mu    sync.Mutex

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewTTLCache creates a cache with the given ttl. A nil clock uses the wall clock.
func NewTTLCache(ttl time.Duration, clock Clock) *TTLCache {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TTLCache{
		items: cache.New(cache.NoExpiration, 0),
		ttl:   ttl,
		clock: clock,
	}
}

// Get returns the cached value for key if it has not expired
func (c *TTLCache) Get(key string) (interface{}, bool) {
	raw, found := c.items.Get(key)
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	e := raw.(entry)
	if c.clock.Now().Sub(e.insertedAt) >= c.ttl {
		c.items.Delete(key)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores value under key, stamped with the current clock time
func (c *TTLCache) Set(key string, value interface{}) {
	c.items.Set(key, entry{value: value, insertedAt: c.clock.Now()}, cache.NoExpiration)
}

// Purge removes every expired entry and returns how many were dropped
func (c *TTLCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for k, item := range c.items.Items() {
		e, ok := item.Object.(entry)
		if !ok || now.Sub(e.insertedAt) >= c.ttl {
			c.items.Delete(k)
			removed++
		}
	}
	return removed
}

// Flush empties the cache
func (c *TTLCache) Flush() {
	c.items.Flush()
}

// Len returns the number of stored entries, expired or not
func (c *TTLCache) Len() int {
	return c.items.ItemCount()
}

// HitRate returns hits / (hits + misses)
func (c *TTLCache) HitRate() float64 {
	h, m := c.hits.Load(), c.misses.Load()
	if h+m == 0 {
		return 0
	}
	return float64(h) / float64(h+m)
}
