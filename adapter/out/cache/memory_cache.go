// Package cache implements the knowledge cache port. The in-memory
// variant serves single-process deployments; the Redis variant shares
// the cache across replicas.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
)

type memoryEntry struct {
	chunks    []*domain.KnowledgeChunk
	expiresAt time.Time
}

// MemoryCache is a bounded TTL cache keyed by owner. When full, the
// entry closest to expiry is evicted; with per-owner entries and a small
// cap this approximates LRU well enough.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[uuid.UUID]*memoryEntry
	ttl        time.Duration
	maxEntries int
}

var _ out.KnowledgeCache = (*MemoryCache)(nil)

func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &MemoryCache{
		entries:    make(map[uuid.UUID]*memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (c *MemoryCache) Get(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[owner]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, owner)
		return nil, false
	}
	return entry.chunks, true
}

func (c *MemoryCache) Set(ctx context.Context, owner uuid.UUID, chunks []*domain.KnowledgeChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[owner]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[owner] = &memoryEntry{
		chunks:    chunks,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *MemoryCache) Invalidate(ctx context.Context, owner uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, owner)
}

// evictOldest removes the entry closest to expiry. Caller holds the lock.
func (c *MemoryCache) evictOldest() {
	var oldest uuid.UUID
	var oldestExpiry time.Time
	first := true
	for owner, entry := range c.entries {
		if first || entry.expiresAt.Before(oldestExpiry) {
			oldest = owner
			oldestExpiry = entry.expiresAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldest)
	}
}
