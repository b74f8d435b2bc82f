package ratelimit

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/spec-kit/transit-services/pkg/util/errorutil"
)

type ipEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// IPLimiter applies a token bucket per client IP.
type IPLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	entries map[string]*ipEntry
	now     func() time.Time
}

// NewIPLimiter allows perMinute requests per IP with the given burst.
func NewIPLimiter(perMinute, burst int) *IPLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	return &IPLimiter{
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		idle:    10 * time.Minute,
		entries: make(map[string]*ipEntry),
		now:     time.Now,
	}
}

// Allow consumes a token for ip.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[ip]
	if !ok {
		entry = &ipEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = entry
	}
	entry.lastAccess = now
	return entry.limiter.AllowN(now, 1)
}

// Sweep drops limiters idle for longer than the idle window.
func (l *IPLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	cutoff := l.now().Add(-l.idle)
	for ip, entry := range l.entries {
		if entry.lastAccess.Before(cutoff) {
			delete(l.entries, ip)
			removed++
		}
	}
	return removed
}

// Size returns the number of tracked IPs.
func (l *IPLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Handler rejects requests over the limit with 429 and Retry-After.
func (l *IPLimiter) Handler() fiber.Handler {
	retryAfter := int(math.Round(1 / float64(l.limit)))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return func(c *fiber.Ctx) error {
		if !l.Allow(c.IP()) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return apperrors.NewRateLimited()
		}
		if l.Size() > 10000 {
			l.Sweep()
		}
		return c.Next()
	}
}
