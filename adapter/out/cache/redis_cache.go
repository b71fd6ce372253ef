package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

const knowledgeKeyPrefix = "knowledge:"

// RedisCache caches knowledge chunks in Redis with a TTL. Cache failures
// are treated as misses; the repository remains the source of truth.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ out.KnowledgeCache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, bool) {
	data, err := c.client.Get(ctx, knowledgeKeyPrefix+owner.String()).Bytes()
	if err != nil {
		return nil, false
	}

	var chunks []*domain.KnowledgeChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		logger.WithError(err).Warn("corrupt knowledge cache entry for owner %s, dropping", owner)
		c.Invalidate(ctx, owner)
		return nil, false
	}
	return chunks, true
}

func (c *RedisCache) Set(ctx context.Context, owner uuid.UUID, chunks []*domain.KnowledgeChunk) {
	data, err := json.Marshal(chunks)
	if err != nil {
		logger.WithError(err).Warn("marshalling knowledge cache entry failed")
		return
	}
	if err := c.client.Set(ctx, knowledgeKeyPrefix+owner.String(), data, c.ttl).Err(); err != nil {
		logger.WithError(err).Warn("writing knowledge cache entry failed")
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, owner uuid.UUID) {
	if err := c.client.Del(ctx, knowledgeKeyPrefix+owner.String()).Err(); err != nil {
		logger.WithError(err).Warn("invalidating knowledge cache entry failed")
	}
}
