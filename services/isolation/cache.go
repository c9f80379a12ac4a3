package isolation

import (
	"container/list"
	"sync"
	"time"
)

// ownershipEntry is a single cached id -> owning account mapping
type ownershipEntry struct {
	key        string
	accountID  string
	insertedAt time.Time
	element    *list.Element
}

// isExpired checks if the cache entry has expired
func (e *ownershipEntry) isExpired(ttl time.Duration) bool {
	return time.Since(e.insertedAt) > ttl
}

// ownershipCache is an in-memory LRU cache with TTL for id-to-account
// ownership lookups. Ownership never changes platform-side, but entries
// still expire so a deleted object cannot pin memory forever.
// Thread-safe implementation using sync.Mutex.
type ownershipCache struct {
	mu      sync.Mutex
	entries map[string]*ownershipEntry
	lruList *list.List
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
}

// newOwnershipCache creates a cache with the specified max size and TTL
func newOwnershipCache(maxSize int, ttl time.Duration) *ownershipCache {
	return &ownershipCache{
		entries: make(map[string]*ownershipEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// get retrieves a cached owning account id.
// Returns false if not found or expired.
func (c *ownershipCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists || entry.isExpired(c.ttl) {
		c.misses++
		if exists {
			c.removeEntry(key)
		}
		return "", false
	}

	c.lruList.MoveToFront(entry.element)
	c.hits++

	return entry.accountID, true
}

// set stores an ownership mapping
func (c *ownershipCache) set(key, accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[key]; exists {
		entry.accountID = accountID
		entry.insertedAt = time.Now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &ownershipEntry{
		key:        key,
		accountID:  accountID,
		insertedAt: time.Now(),
	}
	entry.element = c.lruList.PushFront(key)
	c.entries[key] = entry
}

// stats returns hit and miss counters
func (c *ownershipCache) stats() (hits, misses uint64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.hits, c.misses, c.lruList.Len()
}

// removeEntry removes an entry from the cache (must be called with lock held)
func (c *ownershipCache) removeEntry(key string) {
	if entry, exists := c.entries[key]; exists {
		c.lruList.Remove(entry.element)
		delete(c.entries, key)
	}
}

// evictLRU evicts the least recently used entry (must be called with lock held)
func (c *ownershipCache) evictLRU() {
	backElement := c.lruList.Back()
	if backElement != nil {
		key := backElement.Value.(string)
		c.lruList.Remove(backElement)
		delete(c.entries, key)
	}
}
