// Package ratelimit implements a fixed-window request limiter backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key in fixed windows
type Limiter struct {
	client      redis.Cmdable
	maxRequests int64
	window      time.Duration
}

func NewLimiter(client redis.Cmdable, maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		client:      client,
		maxRequests: int64(maxRequests),
		window:      window,
	}
}

// incrWindow bumps the counter and opens the window in one atomic step.
// A key left without a TTL gets one on its next hit.
var incrWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Allow records one request for purpose+identifier and reports whether it
// is within the limit for the current window.
func (l *Limiter) Allow(ctx context.Context, purpose, identifier string) (bool, error) {
	count, err := incrWindow.Run(ctx, l.client, []string{limitKey(purpose, identifier)}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	return count <= l.maxRequests, nil
}

func limitKey(purpose, identifier string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, identifier)
}

// Noop allows every request. Used when rate limiting is disabled.
type Noop struct{}

func (Noop) Allow(context.Context, string, string) (bool, error) { return true, nil }
