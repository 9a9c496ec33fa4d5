package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPendingArbiter is the shared-deployment arbiter: SET NX gives
// the same exactly-one-first guarantee as the database unique index
// without a round trip to the primary store. Markers carry a TTL so
// abandoned tokens do not pin keys forever; the token itself is the
// durable audit record.
type RedisPendingArbiter struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisPendingArbiter(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisPendingArbiter {
	if prefix == "" {
		prefix = "verify_pending"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisPendingArbiter{client: client, prefix: prefix, ttl: ttl}
}

func (a *RedisPendingArbiter) Begin(ctx context.Context, token string) (Attempt, error) {
	if a.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}
	created, err := a.client.SetNX(ctx, a.key(token), time.Now().UTC().Format(time.RFC3339Nano), a.ttl).Result()
	if err != nil {
		return "", err
	}
	if created {
		return FirstAttempt, nil
	}
	return RepeatAttempt, nil
}

func (a *RedisPendingArbiter) key(token string) string {
	return fmt.Sprintf("%s:%s", a.prefix, token)
}
