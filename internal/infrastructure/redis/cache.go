package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/avatarctic/ledger/internal/core/ports"
)

// RedisCache implements ports.Cache using a Redis client.
type RedisCache struct {
	r      redis.Cmdable
	prefix string
}

var _ ports.Cache = (*RedisCache)(nil)

func NewRedisCache(r redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{r: r, prefix: prefix}
}

func (c *RedisCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.r.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.r.Set(ctx, c.key(key), value, ttl).Err()
}

// Delete removes every given key in one round trip.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ns := make([]string, len(keys))
	for i, k := range keys {
		ns[i] = c.key(k)
	}
	return c.r.Del(ctx, ns...).Err()
}
