package policy

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const windowShards = 16

// MemoryStore is the in-process WindowStore. Tenants are spread across a
// fixed set of shards so concurrent mutations from different tenants do
// not contend on one lock. Tracked tenants are bounded: when a shard is
// full the tenant idle the longest is evicted.
type MemoryStore struct {
	shards          [windowShards]*windowShard
	maxShardTenants int
}

type windowShard struct {
	mu      sync.Mutex
	tenants map[string]*tenantWindow
}

type tenantWindow struct {
	events      []time.Time // ascending
	lastTouched time.Time
}

// NewMemoryStore creates a store tracking at most maxTrackedTenants
// tenants across all shards
func NewMemoryStore(maxTrackedTenants int) *MemoryStore {
	perShard := maxTrackedTenants / windowShards
	if perShard < 1 {
		perShard = 1
	}

	store := &MemoryStore{maxShardTenants: perShard}
	for i := range store.shards {
		store.shards[i] = &windowShard{tenants: make(map[string]*tenantWindow)}
	}
	return store
}

// Record appends a mutation event for the tenant
func (s *MemoryStore) Record(_ context.Context, tenantID string, at time.Time) error {
	shard := s.shard(tenantID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	window, ok := shard.tenants[tenantID]
	if !ok {
		if len(shard.tenants) >= s.maxShardTenants {
			shard.evictIdle()
		}
		window = &tenantWindow{}
		shard.tenants[tenantID] = window
	}

	window.events = append(window.events, at)
	window.lastTouched = at

	return nil
}

// Count returns how many events fall inside [from, to]. Events older than
// from can never be queried again, so they are pruned as a side effect.
func (s *MemoryStore) Count(_ context.Context, tenantID string, from, to time.Time) (int, error) {
	shard := s.shard(tenantID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	window, ok := shard.tenants[tenantID]
	if !ok {
		return 0, nil
	}

	// Drop everything before the window start.
	firstLive := 0
	for firstLive < len(window.events) && window.events[firstLive].Before(from) {
		firstLive++
	}
	if firstLive > 0 {
		window.events = append(window.events[:0], window.events[firstLive:]...)
	}

	count := 0
	for _, at := range window.events {
		if !at.After(to) {
			count++
		}
	}

	if len(window.events) == 0 {
		delete(shard.tenants, tenantID)
	}

	return count, nil
}

func (s *MemoryStore) shard(tenantID string) *windowShard {
	h := fnv.New32a()
	h.Write([]byte(tenantID))
	return s.shards[h.Sum32()%windowShards]
}

// evictIdle removes the tenant idle the longest (must be called with the
// shard lock held)
func (sh *windowShard) evictIdle() {
	var oldestKey string
	var oldest time.Time

	for tenantID, window := range sh.tenants {
		if oldestKey == "" || window.lastTouched.Before(oldest) {
			oldestKey = tenantID
			oldest = window.lastTouched
		}
	}
	if oldestKey != "" {
		delete(sh.tenants, oldestKey)
	}
}
