package cache

// EvictionPolicyType names the available eviction policies.
type EvictionPolicyType string

const (
	// FIFOEvictionPolicyType evicts the oldest-inserted entry first.
	FIFOEvictionPolicyType EvictionPolicyType = "fifo"

	// LRUEvictionPolicyType evicts the least-recently-used entry first.
	LRUEvictionPolicyType EvictionPolicyType = "lru"

	// LFUEvictionPolicyType evicts the least-frequently-used entry first.
	LFUEvictionPolicyType EvictionPolicyType = "lfu"
)

// EvictionPolicy selects a victim key when a cache is at capacity.
// An empty return means nothing to evict.
type EvictionPolicy interface {
	SelectVictim(entries map[string]*Entry) string
}

func newEvictionPolicy(t EvictionPolicyType) EvictionPolicy {
	switch t {
	case FIFOEvictionPolicyType:
		return &FIFOPolicy{}
	case LFUEvictionPolicyType:
		return &LFUPolicy{}
	default:
		return &LRUPolicy{}
	}
}

type FIFOPolicy struct{}

func (p *FIFOPolicy) SelectVictim(entries map[string]*Entry) string {
	var victim string
	var oldest uint64
	for key, entry := range entries {
		if victim == "" || entry.insertSeq < oldest {
			victim = key
			oldest = entry.insertSeq
		}
	}
	return victim
}

type LRUPolicy struct{}

func (p *LRUPolicy) SelectVictim(entries map[string]*Entry) string {
	var victim string
	var oldest uint64
	for key, entry := range entries {
		if victim == "" || entry.accessSeq < oldest {
			victim = key
			oldest = entry.accessSeq
		}
	}
	return victim
}

type LFUPolicy struct{}

func (p *LFUPolicy) SelectVictim(entries map[string]*Entry) string {
	var victim string
	var victimHits int64
	var victimAccess uint64
	for key, entry := range entries {
		switch {
		case victim == "" || entry.HitCount < victimHits:
			victim = key
			victimHits = entry.HitCount
			victimAccess = entry.accessSeq
		case entry.HitCount == victimHits && entry.accessSeq < victimAccess:
			// LRU tiebreaker to avoid map-order-dependent selection
			victim = key
			victimAccess = entry.accessSeq
		}
	}
	return victim
}
