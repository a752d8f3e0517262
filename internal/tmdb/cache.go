package tmdb

import (
	"sync"
	"time"
)

type cacheEntry struct {
	dates   *ReleaseDates
	expires time.Time
}

type cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newCache(ttl time.Duration) *cache {
	return &cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *cache) get(imdbID string) (*ReleaseDates, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[imdbID]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.dates, true
}

func (c *cache) set(imdbID string, dates *ReleaseDates) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[imdbID] = cacheEntry{
		dates:   dates,
		expires: time.Now().Add(c.ttl),
	}
}
