package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"estatehub/internal/logger"
	"estatehub/internal/permission"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const principalKeyPrefix = "estatehub:principal:"

type redisPrincipal struct {
	Role        permission.Role        `json:"role"`
	Permissions permission.Permissions `json:"permissions"`
}

// RedisCache shares principals between API replicas. Redis failures are
// logged and treated as cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, log: logger.New("CACHE")}
}

func principalKey(id uuid.UUID) string { return principalKeyPrefix + id.String() }

func (c *RedisCache) Get(ctx context.Context, adminID uuid.UUID) (permission.Principal, bool) {
	raw, err := c.client.Get(ctx, principalKey(adminID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("principal cache get failed: %v", err)
		}
		return permission.Principal{}, false
	}

	var entry redisPrincipal
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.Warn("dropping undecodable principal for %s: %v", adminID, err)
		c.Invalidate(ctx, adminID)
		return permission.Principal{}, false
	}
	return permission.Principal{ID: adminID, Role: entry.Role, Permissions: entry.Permissions}, true
}

func (c *RedisCache) Set(ctx context.Context, p permission.Principal) {
	raw, err := json.Marshal(redisPrincipal{Role: p.Role, Permissions: p.Permissions})
	if err != nil {
		c.log.Warn("principal encode failed: %v", err)
		return
	}
	if err := c.client.Set(ctx, principalKey(p.ID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("principal cache set failed: %v", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, adminID uuid.UUID) {
	if err := c.client.Del(ctx, principalKey(adminID)).Err(); err != nil {
		c.log.Warn("principal cache invalidate failed: %v", err)
	}
}
