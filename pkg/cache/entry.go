package cache

import (
	"time"

	"github.com/algoinsight/trace-router/pkg/tracedoc"
)

// Entry is a single cached value with its expiry and access metadata.
// An entry is owned exclusively by the cache that created it.
type Entry struct {
	Value     tracedoc.Document
	CreatedAt time.Time
	TTL       time.Duration // 0 = never expires
	HitCount  int64

	// Monotonic sequence numbers assigned by the owning cache. Insertion
	// order backs FIFO eviction, access order backs LRU; sequences are
	// exact where wall-clock timestamps can tie within clock granularity.
	insertSeq uint64
	accessSeq uint64
}

// Expired reports whether the entry's TTL has elapsed at the given time.
func (e *Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.Sub(e.CreatedAt) > e.TTL
}
