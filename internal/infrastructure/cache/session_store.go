package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"

	"github.com/redis/go-redis/v9"
)

// defaultSessionTTL applies to sessions created without an expiry
const defaultSessionTTL = 10 * time.Minute

// RedisSessionStore keeps pending OAuth installs until the callback consumes them
type RedisSessionStore struct {
	client *redis.Client
	now    func() time.Time
}

var _ ports.SessionRepository = (*RedisSessionStore)(nil)

// NewRedisSessionStore creates a session store on an existing client
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, now: time.Now}
}

func sessionKey(state string) string {
	return keyPrefix + "oauth:" + state
}

func (s *RedisSessionStore) CreateSession(ctx context.Context, session *domain.Session) error {
	ttl := defaultSessionTTL
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return fmt.Errorf("session already expired")
		}
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.State), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// ConsumeSession reads and deletes the session atomically so a state can only be used once
func (s *RedisSessionStore) ConsumeSession(ctx context.Context, state string) (*domain.Session, error) {
	raw, err := s.client.GetDel(ctx, sessionKey(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}
