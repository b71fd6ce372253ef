package rag

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
)

// Loader serves an owner's knowledge chunks through the cache, loading
// from the repository on a miss. Concurrent misses for the same owner are
// collapsed into a single repository read.
type Loader struct {
	repo   out.KnowledgeRepository
	cache  out.KnowledgeCache
	flight singleflight.Group
}

func NewLoader(repo out.KnowledgeRepository, cache out.KnowledgeCache) *Loader {
	return &Loader{repo: repo, cache: cache}
}

// Load returns all knowledge chunks for the owner.
func (l *Loader) Load(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, error) {
	if chunks, ok := l.cache.Get(ctx, owner); ok {
		return chunks, nil
	}

	v, err, _ := l.flight.Do(owner.String(), func() (any, error) {
		chunks, err := l.repo.ListByOwner(ctx, owner)
		if err != nil {
			return nil, err
		}
		l.cache.Set(ctx, owner, chunks)
		return chunks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.KnowledgeChunk), nil
}

// Invalidate drops the cached entry for an owner. Called on every write
// to that owner's knowledge base.
func (l *Loader) Invalidate(ctx context.Context, owner uuid.UUID) {
	l.cache.Invalidate(ctx, owner)
}
