package forecast

import (
	"sync"
	"time"

	"github.com/danwib/tacwx/pkg/logger"
)

type cacheEntry struct {
	snapshot  *Snapshot
	expiresAt time.Time
}

// Cache holds processed snapshots keyed by region code with a fixed TTL
type Cache struct {
	entries map[string]cacheEntry
	ttl     time.Duration
	logger  *logger.Logger
	mu      sync.RWMutex

	hits   int64
	misses int64
}

// NewCache creates a snapshot cache with the given TTL
func NewCache(ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		logger:  log.Named("forecast-cache"),
	}
}

// Get returns the cached snapshot for a region code, or nil when absent or
// expired. Expired entries are kept until overwritten so callers can still
// serve stale data explicitly via GetStale.
func (c *Cache) Get(regionCode string) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[regionCode]
	if !ok || time.Now().After(entry.expiresAt) {
		c.misses++
		return nil
	}
	c.hits++
	return entry.snapshot
}

// GetStale returns the cached snapshot regardless of freshness
func (c *Cache) GetStale(regionCode string) *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entry, ok := c.entries[regionCode]; ok {
		return entry.snapshot
	}
	return nil
}

// Set stores a snapshot for a region code
func (c *Cache) Set(regionCode string, snapshot *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(c.ttl)
	c.entries[regionCode] = cacheEntry{snapshot: snapshot, expiresAt: expiresAt}

	c.logger.Debug("Snapshot cached",
		logger.String("region", regionCode),
		logger.Int("records", len(snapshot.Records)),
		logger.Time("expires_at", expiresAt))
}

// Invalidate removes a region's entry
func (c *Cache) Invalidate(regionCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, regionCode)
}

// Stats returns cache statistics for the status endpoint
func (c *Cache) Stats() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]any{
		"regions": len(c.entries),
		"hits":    c.hits,
		"misses":  c.misses,
		"ttl":     c.ttl.String(),
	}
}
