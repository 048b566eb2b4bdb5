// Package cache guarda respostas JSON de curta duração (grade, disponibilidade).
// Em produção pode usar Redis; sem REDIS_URL cai no cache em memória com TTL.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Store is a byte cache with TTL semantics. Keys are strings, values are []byte (e.g. JSON).
type Store interface {
	Get(ctx context.Context, key string) []byte
	Set(ctx context.Context, key string, value []byte)
	Delete(ctx context.Context, key string)
	DeletePrefix(ctx context.Context, prefix string)
}

// New returns a Redis-backed Store when redisURL is set and parses, otherwise
// the in-memory TTL store.
func New(ttl time.Duration, redisURL string) Store {
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Warn().Err(err).Msg("[cache] REDIS_URL inválida, usando cache em memória")
			return NewTTL(ttl)
		}
		return &Redis{client: redis.NewClient(opts), ttl: ttl}
	}
	return NewTTL(ttl)
}
