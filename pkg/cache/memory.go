package cache

import (
	"sync"
	"time"

	"github.com/algoinsight/trace-router/pkg/observability/logging"
	"github.com/algoinsight/trace-router/pkg/tracedoc"
)

// MemoryCache is a capacity-bounded in-memory store with per-entry TTL.
// All operations are safe for concurrent use; a single mutex per instance
// is sufficient at the expected read/write ratio. Expired entries are
// deleted lazily on read and counted as misses; SweepExpired reclaims
// capacity when invoked by an external trigger.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*Entry

	maxSize    int
	defaultTTL time.Duration
	policy     EvictionPolicy
	seq        uint64

	hits        int64
	misses      int64
	evictions   int64
	expirations int64

	// now is replaceable in tests to simulate clock advance.
	now func() time.Time
}

// MemoryCacheOptions configures a MemoryCache.
type MemoryCacheOptions struct {
	MaxSize        int
	DefaultTTL     time.Duration
	EvictionPolicy EvictionPolicyType
}

// MemoryStats holds usage statistics for a MemoryCache.
type MemoryStats struct {
	Size        int     `json:"size"`
	MaxSize     int     `json:"max_size"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Evictions   int64   `json:"evictions"`
	Expirations int64   `json:"expirations"`
	HitRate     float64 `json:"hit_rate"`
}

// NewMemoryCache creates a bounded TTL cache. The eviction policy defaults
// to LRU when unset.
func NewMemoryCache(options MemoryCacheOptions) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]*Entry),
		maxSize:    options.MaxSize,
		defaultTTL: options.DefaultTTL,
		policy:     newEvictionPolicy(options.EvictionPolicy),
		now:        time.Now,
	}
}

// Get returns the value for key if present and unexpired. Finding an
// expired entry deletes it and counts as a miss. A hit moves the entry to
// the most-recently-used position.
func (c *MemoryCache) Get(key string) (tracedoc.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	if entry.Expired(c.now()) {
		delete(c.entries, key)
		c.expirations++
		c.misses++
		return nil, false
	}

	c.seq++
	entry.accessSeq = c.seq
	entry.HitCount++
	c.hits++

	return entry.Value, true
}

// Set stores value under key with the given TTL. A negative TTL selects
// the cache default; zero means the entry never expires. Insertion beyond
// capacity evicts one entry per the configured policy.
func (c *MemoryCache) Set(key string, value tracedoc.Document, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl < 0 {
		ttl = c.defaultTTL
	}

	// Replacing an existing key must not trigger eviction.
	if _, exists := c.entries[key]; !exists {
		for c.maxSize > 0 && len(c.entries) >= c.maxSize {
			c.evictOne()
		}
	}

	c.seq++
	c.entries[key] = &Entry{
		Value:     value,
		CreatedAt: c.now(),
		TTL:       ttl,
		insertSeq: c.seq,
		accessSeq: c.seq,
	}
}

// Delete removes key, reporting whether it was present.
func (c *MemoryCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// Exists reports whether key is present and unexpired. An expired entry
// is deleted on the way out.
func (c *MemoryCache) Exists(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	if entry.Expired(c.now()) {
		delete(c.entries, key)
		c.expirations++
		return false
	}
	return true
}

// Clear removes every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

// SweepExpired removes all expired entries and returns the count removed.
// It is a maintenance operation driven by a periodic external trigger and
// never runs implicitly on access.
func (c *MemoryCache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if entry.Expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.expirations += int64(removed)
	return removed
}

// Keys returns all stored keys, for debugging and the admin surface.
func (c *MemoryCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// Stats returns a snapshot of the cache's counters.
func (c *MemoryCache) Stats() MemoryStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return MemoryStats{
		Size:        len(c.entries),
		MaxSize:     c.maxSize,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		HitRate:     hitRate,
	}
}

// evictOne removes one entry per the configured policy.
// Caller must hold the lock.
func (c *MemoryCache) evictOne() {
	victim := c.policy.SelectVictim(c.entries)
	if victim == "" {
		return
	}
	delete(c.entries, victim)
	c.evictions++
	logging.Debugf("MemoryCache: evicted %s (max_size=%d)", truncateKey(victim, 20), c.maxSize)
}
