package configstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"notifstore/internal/constants"
	"notifstore/internal/logger"
	"notifstore/pkg/metrics"
)

// DocCache is a read-through cache for raw config documents keyed by id.
// Access control always runs on the cached document afterwards, so the
// cache never widens visibility. Cache failures are logged and treated as
// misses.
type DocCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

func NewDocCache(client *redis.Client, ttlSeconds int, log logger.Logger) *DocCache {
	if client == nil {
		return nil
	}
	if ttlSeconds <= 0 {
		ttlSeconds = 300
	}
	return &DocCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
		log:    log,
	}
}

func (c *DocCache) key(id string) string {
	return constants.CacheKeyPrefixConfig + id
}

func (c *DocCache) get(ctx context.Context, id string) []byte {
	if c == nil {
		return nil
	}
	body, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WarnwCtx(ctx, "config cache read failed", "config_id", id, "error", err)
		}
		metrics.IncCacheMiss()
		return nil
	}
	metrics.IncCacheHit()
	return body
}

func (c *DocCache) set(ctx context.Context, id string, body []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, c.key(id), body, c.ttl).Err(); err != nil {
		c.log.WarnwCtx(ctx, "config cache write failed", "config_id", id, "error", err)
	}
}

func (c *DocCache) invalidate(ctx context.Context, ids ...string) {
	if c == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.WarnwCtx(ctx, "config cache invalidation failed", "config_ids", ids, "error", err)
	}
}
