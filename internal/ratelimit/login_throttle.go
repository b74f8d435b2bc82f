// Package ratelimit guards the login route against brute force.
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const failureKeyPrefix = "login:failures:"

// LoginThrottle counts failed logins per username in Redis.
// Redis errors never block a login; they are logged and the check passes.
type LoginThrottle struct {
	client      *redis.Client
	maxAttempts int
	lockout     time.Duration
	logger      *zap.Logger
}

// NewLoginThrottle returns a throttle. A nil client or a non-positive
// maxAttempts disables throttling.
func NewLoginThrottle(client *redis.Client, maxAttempts int, lockout time.Duration, logger *zap.Logger) *LoginThrottle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lockout <= 0 {
		lockout = 15 * time.Minute
	}
	return &LoginThrottle{client: client, maxAttempts: maxAttempts, lockout: lockout, logger: logger}
}

func (t *LoginThrottle) enabled() bool {
	return t != nil && t.client != nil && t.maxAttempts > 0
}

func failureKey(username string) string {
	return failureKeyPrefix + strings.ToLower(strings.TrimSpace(username))
}

// Locked reports whether username has reached the failure limit.
func (t *LoginThrottle) Locked(ctx context.Context, username string) bool {
	if !t.enabled() {
		return false
	}
	count, err := t.client.Get(ctx, failureKey(username)).Int()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		t.logger.Warn("login throttle unavailable; allowing attempt", zap.Error(err))
		return false
	}
	return count >= t.maxAttempts
}

// RecordFailure bumps the counter and refreshes its expiry.
func (t *LoginThrottle) RecordFailure(ctx context.Context, username string) {
	if !t.enabled() {
		return
	}
	key := failureKey(username)
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, t.lockout)
		return nil
	})
	if err != nil {
		t.logger.Warn("failed to record login failure", zap.Error(err))
	}
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, username string) {
	if !t.enabled() {
		return
	}
	if err := t.client.Del(ctx, failureKey(username)).Err(); err != nil {
		t.logger.Warn("failed to reset login failures", zap.Error(err))
	}
}
