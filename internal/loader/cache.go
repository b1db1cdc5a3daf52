package loader

import (
	"sync"
	"time"
)

// Cache holds the last successful load for a bounded time window so view
// renders within a session do not re-read the workbook. Invalidate is the
// explicit hook wired to logout.
type Cache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	path     string
	result   *Result
	loadedAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

// Get returns the cached result for path if it is still fresh.
func (c *Cache) Get(path string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.result == nil || c.path != path {
		return nil, false
	}
	if time.Since(c.loadedAt) > c.ttl {
		return nil, false
	}
	return c.result, true
}

func (c *Cache) Set(path string, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = path
	c.result = result
	c.loadedAt = time.Now()
}

// LoadedAt reports when the cached table was built; zero if nothing cached.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = nil
	c.path = ""
	c.loadedAt = time.Time{}
}
