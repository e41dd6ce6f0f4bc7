package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmissionLock serializes proof submissions per challenge. Two
// concurrent submissions for the same challenge (a double-tap
// resubmit) must not both reach settlement; the loser gets a state
// conflict instead.
type SubmissionLock interface {
	// Acquire claims the challenge for the caller. Reports false when
	// another submission already holds the claim.
	Acquire(ctx context.Context, challengeID string) (bool, error)
	Release(ctx context.Context, challengeID string) error
}

type redisLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLock creates a SubmissionLock backed by Redis SETNX with a
// TTL so a crashed worker cannot wedge a challenge forever.
func NewRedisLock(client *redis.Client, ttl time.Duration) SubmissionLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &redisLock{client: client, ttl: ttl}
}

func (l *redisLock) Acquire(ctx context.Context, challengeID string) (bool, error) {
	key := fmt.Sprintf("submission:claim:%s", challengeID)
	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire submission claim: %w", err)
	}
	return ok, nil
}

func (l *redisLock) Release(ctx context.Context, challengeID string) error {
	key := fmt.Sprintf("submission:claim:%s", challengeID)
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release submission claim: %w", err)
	}
	return nil
}
