package auth

import (
	"sync"
	"time"

	"siteulation/internal/models"
)

// Cache holds verified user snapshots keyed by raw token. It exists as an
// interface so the verifier can be tested against TTL expiry without a
// real clock, and so the eviction policy can be swapped out.
type Cache interface {
	Get(token string) (*models.User, bool)
	Set(token string, user *models.User)
	Delete(token string)
}

type cacheEntry struct {
	user      *models.User
	fetchedAt time.Time
}

// MemoryCache is a mutex-guarded map with a fixed TTL. Entries are lazily
// invalidated on read; there is no background sweeper, which is fine for a
// read-mostly token cache that regenerates itself on miss.
type MemoryCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewMemoryCache creates a cache with the given TTL. A nil clock means
// time.Now.
func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *MemoryCache) Get(token string) (*models.User, bool) {
	c.mu.RLock()
	entry, ok := c.entries[token]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		c.Delete(token)
		return nil, false
	}
	return entry.user, true
}

func (c *MemoryCache) Set(token string, user *models.User) {
	c.mu.Lock()
	c.entries[token] = cacheEntry{user: user, fetchedAt: c.now()}
	c.mu.Unlock()
}

func (c *MemoryCache) Delete(token string) {
	c.mu.Lock()
	delete(c.entries, token)
	c.mu.Unlock()
}
