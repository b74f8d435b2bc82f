package ratelimit

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPLimiterBurstThenReject(t *testing.T) {
	l := NewIPLimiter(60, 2)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	fixed = fixed.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestIPLimiterSweep(t *testing.T) {
	l := NewIPLimiter(60, 1)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	l.Allow("10.0.0.1")
	fixed = fixed.Add(time.Hour)
	l.Allow("10.0.0.2")

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Size())
}

func TestIPLimiterHandler(t *testing.T) {
	l := NewIPLimiter(1, 1)
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(fiber.StatusTooManyRequests)
		},
	})
	app.Post("/login", l.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestLoginThrottleDisabledWithoutClient(t *testing.T) {
	th := NewLoginThrottle(nil, 3, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		th.RecordFailure(ctx, "a@x.com")
	}
	assert.False(t, th.Locked(ctx, "a@x.com"))
}

func TestLoginThrottleFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	th := NewLoginThrottle(client, 1, time.Minute, nil)
	ctx := context.Background()

	th.RecordFailure(ctx, "a@x.com")
	assert.False(t, th.Locked(ctx, "a@x.com"))
	th.Reset(ctx, "a@x.com")
}

func TestLoginThrottleAgainstRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	th := NewLoginThrottle(client, 2, time.Minute, nil)
	th.Reset(ctx, "Throttle@X.com")

	th.RecordFailure(ctx, "throttle@x.com")
	assert.False(t, th.Locked(ctx, "THROTTLE@x.com"))
	th.RecordFailure(ctx, "Throttle@x.com")
	assert.True(t, th.Locked(ctx, "throttle@x.com"))

	ttl, err := client.TTL(ctx, failureKey("throttle@x.com")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	th.Reset(ctx, "throttle@x.com")
	assert.False(t, th.Locked(ctx, "throttle@x.com"))
}
