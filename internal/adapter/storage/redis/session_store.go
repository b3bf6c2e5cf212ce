package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SessionStore implements ports.SessionStore using Redis string keys
// with a TTL. Revoking a session is a plain DEL, so a deactivated
// token stops working across all instances at once.
type SessionStore struct {
	client *goredis.Client
	prefix string
}

// NewSessionStore creates a new Redis-backed session store.
func NewSessionStore(client *goredis.Client) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "session:",
	}
}

// Create stores a session mapping to its user with the given TTL.
func (s *SessionStore) Create(ctx context.Context, sessionID string, userID int64, ttl time.Duration) error {
	key := s.prefix + sessionID
	if err := s.client.Set(ctx, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis session create: %w", err)
	}
	return nil
}

// Get resolves a session to its user ID. Returns (0, nil) for unknown
// or expired sessions.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (int64, error) {
	key := s.prefix + sessionID
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis session get: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis session value: %w", err)
	}
	return userID, nil
}

// Revoke deletes a session. Unknown sessions are a no-op.
func (s *SessionStore) Revoke(ctx context.Context, sessionID string) error {
	key := s.prefix + sessionID
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis session revoke: %w", err)
	}
	return nil
}
