package cache

import (
	"context"
	"fmt"
	"time"

	"configurator-shopify-layer/internal/ports"

	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyStore de-duplicates webhook deliveries across instances
type RedisIdempotencyStore struct {
	client *redis.Client
}

var _ ports.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// NewRedisIdempotencyStore creates a store on an existing client
func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

// MarkProcessed returns true if the delivery was newly marked, false if it was already seen.
// Uses SETNX with TTL in a single atomic operation.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+"webhook:"+id, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark webhook as processed: %w", err)
	}
	return ok, nil
}
