// File: utils/auth_session.go
package utils

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisSessionStore keeps the hash of each user's current token in
// Redis, keyed by user ID. One session per user: a new login replaces
// the previous token, revocation deletes the key.
type RedisSessionStore struct {
	Client *redis.Client
}

// Save stores the token hash for the user with the token's lifetime.
func (s *RedisSessionStore) Save(ctx context.Context, userID, tokenHash string) error {
	if err := s.Client.Set(ctx, AuthCachePrefix+userID, tokenHash, TokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session for %s: %w", userID, err)
	}
	return nil
}

// Get retrieves the stored token hash; redis.Nil means no live session.
func (s *RedisSessionStore) Get(ctx context.Context, userID string) (string, error) {
	hash, err := s.Client.Get(ctx, AuthCachePrefix+userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch session for %s: %w", userID, err)
	}
	return hash, nil
}

// Delete removes the user's session.
func (s *RedisSessionStore) Delete(ctx context.Context, userID string) error {
	if err := s.Client.Del(ctx, AuthCachePrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to delete session for %s: %w", userID, err)
	}
	return nil
}
