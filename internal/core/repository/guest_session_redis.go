package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jeet-12/pashupatinath-storefront/internal/core/domain"
)

const guestSessionKeyPrefix = "guest_session:"

// RedisGuestSessionRepository implements domain.GuestSessionRepository
// on redis. Sessions are stored as a JSON blob under a fixed key prefix
// with a TTL pinned to the session expiry, so stale records vanish on
// their own.
type RedisGuestSessionRepository struct {
	client *redis.Client
}

// NewRedisGuestSessionRepository creates a redis-backed repository.
func NewRedisGuestSessionRepository(client *redis.Client) *RedisGuestSessionRepository {
	return &RedisGuestSessionRepository{client: client}
}

func (r *RedisGuestSessionRepository) key(guestID string) string {
	return guestSessionKeyPrefix + guestID
}

// Get returns the session for the given guest id.
// Returns (nil, nil) when no session is stored.
func (r *RedisGuestSessionRepository) Get(ctx context.Context, guestID string) (*domain.GuestSession, error) {
	val, err := r.client.Get(ctx, r.key(guestID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s domain.GuestSession
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		// Corrupt blob: treat as absent so the caller regenerates.
		return nil, nil
	}
	return &s, nil
}

// Save upserts the session record with a TTL matching its expiry.
func (r *RedisGuestSessionRepository) Save(ctx context.Context, s *domain.GuestSession) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("guest session %s: expires_at must be in the future", s.GuestID)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode guest session: %w", err)
	}
	return r.client.Set(ctx, r.key(s.GuestID), data, ttl).Err()
}

// Delete removes the session. Deleting an absent session is a no-op.
func (r *RedisGuestSessionRepository) Delete(ctx context.Context, guestID string) error {
	return r.client.Del(ctx, r.key(guestID)).Err()
}
