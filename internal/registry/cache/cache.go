// Package cache provides a Redis read-through cache for certificate holder
// lookups. OwnerOf is the hot path once control of a vault is tokenized, so
// holders are cached with a short TTL and overwritten on re-registration.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"custodia/pkg/domain"
	"custodia/pkg/platform/sentinel"
)

// HolderTTL bounds staleness if an invalidation is lost.
const HolderTTL = 5 * time.Minute

type RedisCache struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func key(vault domain.Address) string {
	return "registry:holder:" + vault.String()
}

func (c *RedisCache) GetHolder(ctx context.Context, vault domain.Address) (domain.Address, error) {
	raw, err := c.client.Get(ctx, key(vault)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", sentinel.ErrNotFound
		}
		return "", err
	}
	holder, err := domain.ParseAddress(raw)
	if err != nil {
		// Corrupt entry; treat as a miss so the store repopulates it.
		return "", sentinel.ErrNotFound
	}
	return holder, nil
}

func (c *RedisCache) SetHolder(ctx context.Context, vault, holder domain.Address) error {
	return c.client.Set(ctx, key(vault), holder.String(), HolderTTL).Err()
}
