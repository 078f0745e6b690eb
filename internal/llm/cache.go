package llm

import (
	"sync"
	"time"

	"github.com/Veraticus/aviation-bay/internal/model"
	"github.com/jonboulle/clockwork"
)

// DefaultCacheTTL is used when Config.CacheTTL is zero.
const DefaultCacheTTL = 15 * time.Minute

// cacheEntry represents cached detections for one image.
type cacheEntry struct {
	expiry time.Time
	jets   []model.DetectedJet
}

// detectionCache provides thread-safe caching of analysis results keyed by
// image digest. Expired entries are dropped when touched or on set.
type detectionCache struct {
	clock   clockwork.Clock
	entries map[string]cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

// newDetectionCache creates a new cache with the specified TTL.
func newDetectionCache(ttl time.Duration, clock clockwork.Clock) *detectionCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &detectionCache{
		clock:   clock,
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// get retrieves detections from the cache if they exist and haven't expired.
func (c *detectionCache) get(key string) ([]model.DetectedJet, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if c.clock.Now().After(entry.expiry) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	return append([]model.DetectedJet(nil), entry.jets...), true
}

// set stores detections in the cache.
func (c *detectionCache) set(key string, jets []model.DetectedJet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for k, e := range c.entries {
		if now.After(e.expiry) {
			delete(c.entries, k)
		}
	}

	c.entries[key] = cacheEntry{
		jets:   append([]model.DetectedJet(nil), jets...),
		expiry: now.Add(c.ttl),
	}
}

// clear removes all entries from the cache.
func (c *detectionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// size returns the number of entries in the cache.
func (c *detectionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
