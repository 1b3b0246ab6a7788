package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"

	"github.com/redis/go-redis/v9"
)

// RedisVariantCache stores size->variant mappings as JSON with a TTL
type RedisVariantCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.VariantCache = (*RedisVariantCache)(nil)

// NewRedisVariantCache creates a variant cache on an existing client
func NewRedisVariantCache(client *redis.Client, ttl time.Duration) *RedisVariantCache {
	return &RedisVariantCache{client: client, ttl: ttl}
}

func variantKey(shop, productID string) string {
	return keyPrefix + "variants:" + domain.NormalizeShopDomain(shop) + ":" + productID
}

func (c *RedisVariantCache) Get(ctx context.Context, shop, productID string) (domain.VariantMapping, error) {
	raw, err := c.client.Get(ctx, variantKey(shop, productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read variant cache: %w", err)
	}

	var mapping domain.VariantMapping
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return nil, fmt.Errorf("failed to decode variant cache entry: %w", err)
	}
	return mapping, nil
}

func (c *RedisVariantCache) Set(ctx context.Context, shop, productID string, mapping domain.VariantMapping) error {
	raw, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to encode variant cache entry: %w", err)
	}
	if err := c.client.Set(ctx, variantKey(shop, productID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write variant cache: %w", err)
	}
	return nil
}

func (c *RedisVariantCache) Invalidate(ctx context.Context, shop, productID string) error {
	if err := c.client.Del(ctx, variantKey(shop, productID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate variant cache: %w", err)
	}
	return nil
}

// MemoryVariantCache is the single-instance fallback used when no REDIS_URL is set
type MemoryVariantCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	mapping   domain.VariantMapping
	expiresAt time.Time
}

var _ ports.VariantCache = (*MemoryVariantCache)(nil)

// NewMemoryVariantCache creates an in-process variant cache
func NewMemoryVariantCache(ttl time.Duration) *MemoryVariantCache {
	return &MemoryVariantCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryVariantCache) Get(_ context.Context, shop, productID string) (domain.VariantMapping, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[variantKey(shop, productID)]
	if !ok || (c.ttl > 0 && c.now().After(entry.expiresAt)) {
		return nil, nil
	}
	out := make(domain.VariantMapping, len(entry.mapping))
	for k, v := range entry.mapping {
		out[k] = v
	}
	return out, nil
}

func (c *MemoryVariantCache) Set(_ context.Context, shop, productID string, mapping domain.VariantMapping) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make(domain.VariantMapping, len(mapping))
	for k, v := range mapping {
		stored[k] = v
	}
	c.entries[variantKey(shop, productID)] = memoryEntry{mapping: stored, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryVariantCache) Invalidate(_ context.Context, shop, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, variantKey(shop, productID))
	return nil
}
