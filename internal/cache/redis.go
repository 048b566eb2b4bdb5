package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store over a Redis connection.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *Redis) Get(ctx context.Context, key string) []byte {
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	return b
}

func (c *Redis) Set(ctx context.Context, key string, value []byte) {
	_ = c.client.Set(ctx, key, value, c.ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, key string) {
	_ = c.client.Del(ctx, key).Err()
}

func (c *Redis) DeletePrefix(ctx context.Context, prefix string) {
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}
