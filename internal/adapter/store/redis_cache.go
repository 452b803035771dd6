package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"recserve/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

var _ repository.RetrievalCache = (*RedisCache)(nil)

// RedisCache holds recent retrieval results. Safe because retrieval is
// deterministic for fixed model state; the short TTL bounds staleness
// across an operator-driven model swap.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal([]byte(val), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}
