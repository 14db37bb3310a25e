package engine

import (
	"sync"
	"time"

	"github.com/atlasheritage/heritage-risk/internal/models"
)

type cacheEntry struct {
	profile        models.RiskProfile
	lastAssessment time.Time
	storedAt       time.Time
}

// ProfileCache holds derived risk profiles per site with a TTL. It is owned
// and injected explicitly; there is no package-level instance. Mutations go
// through Invalidate, which is synchronous with the write path.
type ProfileCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewProfileCache(ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached profile for siteID if one is present and younger
// than the TTL at the given instant.
func (c *ProfileCache) Get(siteID string, now time.Time) (models.RiskProfile, time.Time, bool) {
	c.mu.RLock()
	entry, ok := c.entries[siteID]
	c.mu.RUnlock()

	if !ok || now.Sub(entry.storedAt) > c.ttl {
		return models.RiskProfile{}, time.Time{}, false
	}
	return entry.profile, entry.lastAssessment, true
}

// Put stores a freshly derived profile.
func (c *ProfileCache) Put(siteID string, profile models.RiskProfile, lastAssessment, now time.Time) {
	c.mu.Lock()
	c.entries[siteID] = cacheEntry{
		profile:        profile,
		lastAssessment: lastAssessment,
		storedAt:       now,
	}
	c.mu.Unlock()
}

// Invalidate drops the entry for one site so the next read re-derives it.
func (c *ProfileCache) Invalidate(siteID string) {
	c.mu.Lock()
	delete(c.entries, siteID)
	c.mu.Unlock()
}
