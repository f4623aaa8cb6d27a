package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartStore keeps serialized carts under "<prefix>:<session id>". Every
// save refreshes the TTL, so a session's cart expires after ttl of inactivity.
type CartStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewCartStore creates a redis-backed cart store. Keys are prefix:sessionID
// and expire ttl after the last write.
func NewCartStore(client redis.UniversalClient, prefix string, ttl time.Duration) *CartStore {
	return &CartStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *CartStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Load returns nil, nil when the session has no stored cart.
func (s *CartStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	return data, nil
}

// Save writes the blob and resets its TTL.
func (s *CartStore) Save(ctx context.Context, sessionID string, blob []byte) error {
	if err := s.client.Set(ctx, s.key(sessionID), blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Delete removes the session's cart. Missing keys are not an error.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}
