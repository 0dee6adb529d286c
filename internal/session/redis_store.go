package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/petalworks/flowershop-backend/internal/domain"
	"github.com/petalworks/flowershop-backend/pkg/redis"
)

const redisKeyPrefix = "session:"

// redisSession is the stored shape. The key is not persisted in the value;
// it is recoverable from the Redis key itself.
type redisSession struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedisStore persists sessions in Redis with a native TTL so expired entries
// vanish without a janitor. Sessions survive process restarts.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save persists the session with a TTL matching its expiry
func (s *RedisStore) Save(ctx context.Context, sess *domain.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	value, err := json.Marshal(redisSession{
		UserID:    sess.UserID,
		Username:  sess.Username,
		IsAdmin:   sess.IsAdmin,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+sess.Key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get returns the session for key or domain.ErrSessionNotFound
func (s *RedisStore) Get(ctx context.Context, key string) (*domain.Session, error) {
	value, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var stored redisSession
	if err := json.Unmarshal(value, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &domain.Session{
		Key:       key,
		UserID:    stored.UserID,
		Username:  stored.Username,
		IsAdmin:   stored.IsAdmin,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// Delete removes the session for key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close is a no-op; the Redis client is owned by the caller
func (s *RedisStore) Close() error {
	return nil
}

var _ Store = (*RedisStore)(nil)
