package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sorted set of accepted confirm attempts scored by time. An attempt is
// recorded only when it fits in the window, so retries while blocked do not
// extend the block.
// KEYS[1] = key
// ARGV[1] = now_ms
// ARGV[2] = window_ms
// ARGV[3] = limit
// ARGV[4] = member
// Returns {allowed, hits, retry_ms}.
const luaConfirmWindow = `
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local hits = redis.call('ZCARD', KEYS[1])

if hits >= tonumber(ARGV[3]) then
  local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
  local wait = window
  if oldest[2] then wait = tonumber(oldest[2]) + window - now end
  return {0, hits, math.max(wait, 0)}
end

redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)
return {1, hits + 1, 0}
`

type Decision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// SlidingWindowLimiter lets each id through at most limit times per window.
type SlidingWindowLimiter struct {
	rdb    *redis.Client
	scope  string
	limit  int
	window time.Duration
	script *redis.Script
	now    func() time.Time
}

func NewSlidingWindowLimiter(
	rdb *redis.Client,
	scope string,
	limit int,
	window time.Duration,
) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		rdb:    rdb,
		scope:  scope,
		limit:  limit,
		window: window,
		script: redis.NewScript(luaConfirmWindow),
		now:    time.Now,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, id string) (Decision, error) {
	const op = "redis.SlidingWindowLimiter.Allow"

	res, err := l.script.Run(
		ctx,
		l.rdb,
		[]string{KeyRateLimit(l.scope, id)},
		l.now().UnixMilli(), l.window.Milliseconds(), l.limit, nonce(12),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("%s: unexpected script result %v", op, res)
	}

	return Decision{
		Allowed:    res[0] == 1,
		Count:      res[1],
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// nonce returns n random bytes hex-encoded.
func nonce(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
