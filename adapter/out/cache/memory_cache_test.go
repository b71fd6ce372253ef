package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
)

func testChunks(n int) []*domain.KnowledgeChunk {
	chunks := make([]*domain.KnowledgeChunk, n)
	for i := range chunks {
		chunks[i] = &domain.KnowledgeChunk{ID: uuid.NewString(), Content: "content"}
	}
	return chunks
}

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, 10)
	ctx := context.Background()
	owner := uuid.New()

	if _, ok := c.Get(ctx, owner); ok {
		t.Error("expected a miss on an empty cache")
	}

	c.Set(ctx, owner, testChunks(3))
	chunks, ok := c.Get(ctx, owner)
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if len(chunks) != 3 {
		t.Errorf("expected 3 chunks, got %d", len(chunks))
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	c := NewMemoryCache(time.Minute, 10)
	ctx := context.Background()
	owner := uuid.New()

	c.Set(ctx, owner, testChunks(1))
	c.Invalidate(ctx, owner)

	if _, ok := c.Get(ctx, owner); ok {
		t.Error("expected a miss after invalidation")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(10*time.Millisecond, 10)
	ctx := context.Background()
	owner := uuid.New()

	c.Set(ctx, owner, testChunks(1))
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(ctx, owner); ok {
		t.Error("expected the entry to expire")
	}
}

func TestMemoryCacheEvictsWhenFull(t *testing.T) {
	c := NewMemoryCache(time.Minute, 2)
	ctx := context.Background()

	first := uuid.New()
	c.Set(ctx, first, testChunks(1))
	time.Sleep(time.Millisecond)
	second := uuid.New()
	c.Set(ctx, second, testChunks(1))
	time.Sleep(time.Millisecond)
	third := uuid.New()
	c.Set(ctx, third, testChunks(1))

	if _, ok := c.Get(ctx, first); ok {
		t.Error("the oldest entry must be evicted at capacity")
	}
	if _, ok := c.Get(ctx, second); !ok {
		t.Error("the second entry must survive")
	}
	if _, ok := c.Get(ctx, third); !ok {
		t.Error("the new entry must be stored")
	}
}

func TestMemoryCacheOverwriteDoesNotEvict(t *testing.T) {
	c := NewMemoryCache(time.Minute, 2)
	ctx := context.Background()

	a := uuid.New()
	b := uuid.New()
	c.Set(ctx, a, testChunks(1))
	c.Set(ctx, b, testChunks(1))
	c.Set(ctx, a, testChunks(2))

	if chunks, ok := c.Get(ctx, a); !ok || len(chunks) != 2 {
		t.Error("overwriting an existing owner must replace its entry")
	}
	if _, ok := c.Get(ctx, b); !ok {
		t.Error("overwriting must not evict another owner")
	}
}
