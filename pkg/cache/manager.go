package cache

import (
	"time"

	"github.com/algoinsight/trace-router/pkg/observability/logging"
	"github.com/algoinsight/trace-router/pkg/observability/metrics"
	"github.com/algoinsight/trace-router/pkg/tracedoc"
)

// Tier TTLs. Exact matches age fastest; algorithm templates are the most
// durable since the precomputed traces change rarely.
const (
	TTLExact      = 24 * time.Hour
	TTLNormalized = 7 * 24 * time.Hour
	TTLTemplate   = 30 * 24 * time.Hour
)

// Tier names used in logs and metrics labels.
const (
	TierExact      = "exact"
	TierNormalized = "normalized"
	TierTemplate   = "template"
)

// Manager composes one bounded memory cache per tier with a shared durable
// cache. Reads check memory first and promote durable hits into memory;
// writes go through to both stores unconditionally.
type Manager struct {
	exact      *MemoryCache
	normalized *MemoryCache
	template   *MemoryCache
	durable    *DurableCache
}

// ManagerOptions configures tier capacities. Zero values fall back to the
// defaults below.
type ManagerOptions struct {
	Dir            string
	ExactMax       int
	NormalizedMax  int
	TemplateMax    int
	EvictionPolicy EvictionPolicyType
}

// Default tier capacities.
const (
	DefaultExactMax      = 500
	DefaultNormalizedMax = 1000
	DefaultTemplateMax   = 2000
)

// ManagerStats aggregates per-tier statistics.
type ManagerStats struct {
	Exact      MemoryStats  `json:"exact"`
	Normalized MemoryStats  `json:"normalized"`
	Template   MemoryStats  `json:"template"`
	Durable    DurableStats `json:"durable"`
}

// CleanupReport holds per-tier expired-entry counts from a cleanup sweep.
type CleanupReport struct {
	ExactExpired      int `json:"exact_expired"`
	NormalizedExpired int `json:"normalized_expired"`
	TemplateExpired   int `json:"template_expired"`
	DurableExpired    int `json:"durable_expired"`
}

// NormalizedProblem is the derived structure of a problem used for
// normalized-tier lookups.
type NormalizedProblem struct {
	Objective       string
	InputStructure  string
	OutputStructure string
}

// LookupResult reports which tier satisfied a SmartLookup.
type LookupResult struct {
	HitTier string
	Data    tracedoc.Document
	Key     string
}

// NewManager builds the three-tier cache over a durable store rooted at
// opts.Dir.
func NewManager(opts ManagerOptions) (*Manager, error) {
	if opts.ExactMax <= 0 {
		opts.ExactMax = DefaultExactMax
	}
	if opts.NormalizedMax <= 0 {
		opts.NormalizedMax = DefaultNormalizedMax
	}
	if opts.TemplateMax <= 0 {
		opts.TemplateMax = DefaultTemplateMax
	}

	durable, err := NewDurableCache(opts.Dir)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		exact: NewMemoryCache(MemoryCacheOptions{
			MaxSize:        opts.ExactMax,
			DefaultTTL:     TTLExact,
			EvictionPolicy: opts.EvictionPolicy,
		}),
		normalized: NewMemoryCache(MemoryCacheOptions{
			MaxSize:        opts.NormalizedMax,
			DefaultTTL:     TTLNormalized,
			EvictionPolicy: opts.EvictionPolicy,
		}),
		template: NewMemoryCache(MemoryCacheOptions{
			MaxSize:        opts.TemplateMax,
			DefaultTTL:     TTLTemplate,
			EvictionPolicy: opts.EvictionPolicy,
		}),
		durable: durable,
	}
	logging.Infof("Cache manager initialized: dir=%s exact=%d normalized=%d template=%d",
		opts.Dir, opts.ExactMax, opts.NormalizedMax, opts.TemplateMax)
	return m, nil
}

// get runs the tiered read path: memory, then durable with promotion.
func (m *Manager) get(tier string, mem *MemoryCache, key string, ttl time.Duration) (tracedoc.Document, bool) {
	start := time.Now()

	if value, ok := mem.Get(key); ok {
		logging.Debugf("%s cache HIT (memory): %s", tier, truncateKey(key, 20))
		metrics.RecordCacheOperation(tier, "get", "hit", time.Since(start).Seconds())
		metrics.RecordCacheHit()
		return value, true
	}

	if value, ok := m.durable.Get(key); ok {
		logging.Debugf("%s cache HIT (durable): %s", tier, truncateKey(key, 20))
		// Promote so subsequent reads are served from memory.
		mem.Set(key, value, ttl)
		metrics.RecordCacheOperation(tier, "get", "hit_durable", time.Since(start).Seconds())
		metrics.RecordCacheHit()
		return value, true
	}

	logging.Debugf("%s cache MISS: %s", tier, truncateKey(key, 20))
	metrics.RecordCacheOperation(tier, "get", "miss", time.Since(start).Seconds())
	metrics.RecordCacheMiss()
	return nil, false
}

// store runs the write-through path: memory and durable unconditionally.
func (m *Manager) store(tier string, mem *MemoryCache, key string, value tracedoc.Document, ttl time.Duration) {
	start := time.Now()

	mem.Set(key, value, ttl)
	status := "success"
	if !m.durable.Set(key, value, ttl) {
		status = "durable_error"
	}

	logging.Debugf("%s cache STORE: %s", tier, truncateKey(key, 20))
	metrics.RecordCacheOperation(tier, "store", status, time.Since(start).Seconds())
	metrics.UpdateCacheEntries(tier, mem.Stats().Size)
}

// GetExact returns the cached trace for an exact problem match.
func (m *Manager) GetExact(problemText string, constraints []string) (tracedoc.Document, bool) {
	key := ExactKey(problemText, constraints)
	return m.get(TierExact, m.exact, key, TTLExact)
}

// StoreExact stores a trace under the exact-match key.
func (m *Manager) StoreExact(problemText string, constraints []string, doc tracedoc.Document) {
	key := ExactKey(problemText, constraints)
	m.store(TierExact, m.exact, key, doc, TTLExact)
}

// GetNormalized returns the cached result for a normalized problem
// structure.
func (m *Manager) GetNormalized(objective, inputStructure, outputStructure string) (tracedoc.Document, bool) {
	key := NormalizedKey(objective, inputStructure, outputStructure)
	return m.get(TierNormalized, m.normalized, key, TTLNormalized)
}

// StoreNormalized stores a result under the normalized-structure key.
func (m *Manager) StoreNormalized(objective, inputStructure, outputStructure string, doc tracedoc.Document) {
	key := NormalizedKey(objective, inputStructure, outputStructure)
	m.store(TierNormalized, m.normalized, key, doc, TTLNormalized)
}

// GetTemplate returns the cached template for an algorithm and size bucket.
func (m *Manager) GetTemplate(algorithmID, sizeBucket string) (tracedoc.Document, bool) {
	key := TemplateKey(algorithmID, sizeBucket)
	return m.get(TierTemplate, m.template, key, TTLTemplate)
}

// StoreTemplate stores a template under the algorithm + size-bucket key.
func (m *Manager) StoreTemplate(algorithmID, sizeBucket string, doc tracedoc.Document) {
	key := TemplateKey(algorithmID, sizeBucket)
	m.store(TierTemplate, m.template, key, doc, TTLTemplate)
}

// GetCachedCode returns generated code cached for an algorithm and input
// signature.
func (m *Manager) GetCachedCode(algorithmID, inputSignature string) (tracedoc.Document, bool) {
	key := CodeKey(algorithmID, inputSignature)
	return m.get(TierNormalized, m.normalized, key, TTLNormalized)
}

// StoreCachedCode stores generated code for an algorithm and input
// signature.
func (m *Manager) StoreCachedCode(algorithmID, inputSignature string, doc tracedoc.Document) {
	key := CodeKey(algorithmID, inputSignature)
	m.store(TierNormalized, m.normalized, key, doc, TTLNormalized)
}

// SmartLookup checks the exact tier and, when normalized structure is
// available, the normalized tier. Returns the first tier that hits.
func (m *Manager) SmartLookup(problemText string, constraints []string, normalized *NormalizedProblem) LookupResult {
	if doc, ok := m.GetExact(problemText, constraints); ok {
		return LookupResult{
			HitTier: TierExact,
			Data:    doc,
			Key:     ExactKey(problemText, constraints),
		}
	}

	if normalized != nil {
		if doc, ok := m.GetNormalized(normalized.Objective, normalized.InputStructure, normalized.OutputStructure); ok {
			return LookupResult{
				HitTier: TierNormalized,
				Data:    doc,
				Key:     NormalizedKey(normalized.Objective, normalized.InputStructure, normalized.OutputStructure),
			}
		}
	}

	return LookupResult{}
}

// Cleanup sweeps expired entries from every tier and the durable store.
func (m *Manager) Cleanup() CleanupReport {
	report := CleanupReport{
		ExactExpired:      m.exact.SweepExpired(),
		NormalizedExpired: m.normalized.SweepExpired(),
		TemplateExpired:   m.template.SweepExpired(),
		DurableExpired:    m.durable.SweepExpired(),
	}
	if total := report.ExactExpired + report.NormalizedExpired + report.TemplateExpired + report.DurableExpired; total > 0 {
		logging.LogEvent("cache_cleanup", map[string]interface{}{
			"exact_expired":      report.ExactExpired,
			"normalized_expired": report.NormalizedExpired,
			"template_expired":   report.TemplateExpired,
			"durable_expired":    report.DurableExpired,
		})
	}
	metrics.UpdateCacheEntries(TierExact, m.exact.Stats().Size)
	metrics.UpdateCacheEntries(TierNormalized, m.normalized.Stats().Size)
	metrics.UpdateCacheEntries(TierTemplate, m.template.Stats().Size)
	return report
}

// Stats returns per-tier statistics.
func (m *Manager) Stats() ManagerStats {
	return ManagerStats{
		Exact:      m.exact.Stats(),
		Normalized: m.normalized.Stats(),
		Template:   m.template.Stats(),
		Durable:    m.durable.Stats(),
	}
}

// ClearAll empties every tier and the durable store.
func (m *Manager) ClearAll() {
	m.exact.Clear()
	m.normalized.Clear()
	m.template.Clear()
	m.durable.Clear()
	logging.Infof("All caches cleared")
}
