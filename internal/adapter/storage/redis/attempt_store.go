package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// AttemptStore implements ports.AttemptStore with Redis counters so the
// lockout holds across instances. Failed attempts use a fixed-window
// INCR + EXPIRE counter; tripping the limit sets a separate lockout key
// whose TTL is the lockout duration.
type AttemptStore struct {
	client      *goredis.Client
	maxAttempts int64
	window      time.Duration
	lockout     time.Duration
}

// NewAttemptStore creates a Redis-backed attempt store.
func NewAttemptStore(client *goredis.Client, maxAttempts int64, window, lockout time.Duration) *AttemptStore {
	return &AttemptStore{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		lockout:     lockout,
	}
}

func (s *AttemptStore) attemptsKey(key string) string { return "attempts:" + key }
func (s *AttemptStore) lockoutKey(key string) string  { return "lockout:" + key }

// Locked reports whether the key is currently locked out.
func (s *AttemptStore) Locked(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.lockoutKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis lockout check: %w", err)
	}
	return n > 0, nil
}

// Fail records a failed attempt and returns the running count plus whether
// this failure tripped the lockout.
func (s *AttemptStore) Fail(ctx context.Context, key string) (int64, bool, error) {
	attemptsKey := s.attemptsKey(key)

	count, err := s.client.Incr(ctx, attemptsKey).Result()
	if err != nil {
		return 0, false, fmt.Errorf("redis attempt incr: %w", err)
	}

	// Start the window on the first failure.
	if count == 1 {
		s.client.Expire(ctx, attemptsKey, s.window)
	}

	if count >= s.maxAttempts {
		if err := s.client.Set(ctx, s.lockoutKey(key), "1", s.lockout).Err(); err != nil {
			return count, false, fmt.Errorf("redis lockout set: %w", err)
		}
		return count, true, nil
	}
	return count, false, nil
}

// Reset clears attempt state after a successful redemption.
func (s *AttemptStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.attemptsKey(key), s.lockoutKey(key)).Err(); err != nil {
		return fmt.Errorf("redis attempt reset: %w", err)
	}
	return nil
}
