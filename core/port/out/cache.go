package out

import (
	"context"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
)

// KnowledgeCache caches an owner's knowledge chunks between poll ticks.
// Entries are bounded (TTL or capacity) and must be invalidated on every
// write to that owner's knowledge base; a cache-forever map is not
// acceptable here.
type KnowledgeCache interface {
	Get(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, bool)
	Set(ctx context.Context, owner uuid.UUID, chunks []*domain.KnowledgeChunk)
	Invalidate(ctx context.Context, owner uuid.UUID)
}
