package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// attemptScript increments the attempt counter and starts the window on the
// first attempt, so the key expires a fixed time after the first failure.
var attemptScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current`)

// RedisLimiter is a fixed-window attempt counter shared by all server instances
type RedisLimiter struct {
	client      *redis.Client
	maxAttempts int
	keyPrefix   string
	window      time.Duration
}

// NewRedisLimiter creates a limiter allowing maxAttempts per window for each key
func NewRedisLimiter(client *redis.Client, maxAttempts int, keyPrefix string, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		keyPrefix:   keyPrefix,
		window:      window,
	}
}

// Allow records one attempt for key and reports whether it is within the limit
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	result, err := attemptScript.Run(ctx, rl.client, []string{rl.keyPrefix + key}, rl.window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("run attempt script: %w", err)
	}
	return result <= rl.maxAttempts, nil
}

// Reset clears the attempts recorded for key
func (rl *RedisLimiter) Reset(ctx context.Context, key string) error {
	return rl.client.Del(ctx, rl.keyPrefix+key).Err()
}

// Current returns the number of attempts recorded for key in the open window
func (rl *RedisLimiter) Current(ctx context.Context, key string) (int, error) {
	current, err := rl.client.Get(ctx, rl.keyPrefix+key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get attempt count: %w", err)
	}
	return current, nil
}
