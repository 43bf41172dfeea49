package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yuvipaste/yuvipaste/internal/model"
	"github.com/yuvipaste/yuvipaste/internal/repository"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps sessions in Redis with a TTL matching their expiry.
type SessionStore struct {
	cache *Cache
}

// Sessions returns a Redis-backed session store.
func (c *Cache) Sessions() *SessionStore {
	return &SessionStore{cache: c}
}

// CreateSession stores a session until its expiry.
func (s *SessionStore) CreateSession(ctx context.Context, sess *model.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.cache.client.Set(ctx, sessionKeyPrefix+sess.TokenHash, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by token digest.
// Expired sessions are evicted by Redis and reported as not found.
func (s *SessionStore) GetSession(ctx context.Context, tokenHash string) (*model.Session, error) {
	data, err := s.cache.client.Get(ctx, sessionKeyPrefix+tokenHash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.IsExpired(time.Now()) {
		return nil, repository.ErrSessionNotFound
	}
	return &sess, nil
}

// DeleteSession removes a session. Deleting a missing session is a no-op.
func (s *SessionStore) DeleteSession(ctx context.Context, tokenHash string) error {
	if err := s.cache.client.Del(ctx, sessionKeyPrefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
