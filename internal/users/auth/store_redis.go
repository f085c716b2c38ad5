// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nzela/nzela-api/internal/platform/constants"
	"github.com/nzela/nzela-api/internal/platform/sec"
)

// # Login Throttle

// RedisLoginThrottle implements [LoginThrottle] with one counter per key.
type RedisLoginThrottle struct {
	client      *redis.Client
	maxFailures int64
	window      time.Duration
}

// NewLoginThrottle creates a Redis-backed LoginThrottle.
func NewLoginThrottle(client *redis.Client, maxFailures int, window time.Duration) *RedisLoginThrottle {
	return &RedisLoginThrottle{client: client, maxFailures: int64(maxFailures), window: window}
}

// throttleKey hashes the caller-supplied key so raw emails never land in Redis.
func throttleKey(key string) string {
	return constants.RedisPrefixLoginFailures + sec.HashToken(key)
}

/*
Blocked reports whether key reached the failure limit.

Returns:
  - bool: true while the window is still open and the limit is reached
  - time.Duration: remaining lock time, for Retry-After
  - error: connectivity errors
*/
func (throttle *RedisLoginThrottle) Blocked(context context.Context, key string) (bool, time.Duration, error) {
	redisKey := throttleKey(key)

	failures, err := throttle.client.Get(context, redisKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("redis_login_throttle_get_failed: %w", err)
	}

	if failures < throttle.maxFailures {
		return false, 0, nil
	}

	ttl, err := throttle.client.TTL(context, redisKey).Result()
	if err != nil {
		return true, throttle.window, fmt.Errorf("redis_login_throttle_ttl_failed: %w", err)
	}
	if ttl < 0 {
		ttl = throttle.window
	}
	return true, ttl, nil
}

/*
RecordFailure increments the counter. The window starts at the first failure and
is not extended by later ones.
*/
func (throttle *RedisLoginThrottle) RecordFailure(context context.Context, key string) error {
	redisKey := throttleKey(key)

	_, err := throttle.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.Incr(context, redisKey)
		pipe.ExpireNX(context, redisKey, throttle.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_login_throttle_incr_failed: %w", err)
	}
	return nil
}

// Reset clears the counter.
func (throttle *RedisLoginThrottle) Reset(context context.Context, key string) error {
	if err := throttle.client.Del(context, throttleKey(key)).Err(); err != nil {
		return fmt.Errorf("redis_login_throttle_reset_failed: %w", err)
	}
	return nil
}

// # Activity Throttle

// RedisActivityThrottle implements [ActivityThrottle] with SET NX EX.
type RedisActivityThrottle struct {
	client   *redis.Client
	interval time.Duration
}

// NewActivityThrottle creates a Redis-backed ActivityThrottle.
func NewActivityThrottle(client *redis.Client, interval time.Duration) *RedisActivityThrottle {
	return &RedisActivityThrottle{client: client, interval: interval}
}

// Allow claims the per-user slot for one interval.
func (throttle *RedisActivityThrottle) Allow(context context.Context, userID string) (bool, error) {
	ok, err := throttle.client.SetNX(context, constants.RedisPrefixActivityTouch+userID, 1, throttle.interval).Result()
	if err != nil {
		return false, fmt.Errorf("redis_activity_throttle_setnx_failed: %w", err)
	}
	return ok, nil
}
