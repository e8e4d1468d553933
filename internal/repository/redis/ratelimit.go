package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Sliding window over a sorted set scored by hit time in milliseconds.
// KEYS[1] = window key
// ARGV[1] = now_ms, ARGV[2] = window_ms, ARGV[3] = limit, ARGV[4] = unique member
const luaSlidingWindow = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
redis.call('ZADD', key, 'NX', now, ARGV[4])
local count = redis.call('ZCARD', key)
redis.call('PEXPIRE', key, window)

if count > limit then
  local earliest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  local first = tonumber(earliest[2]) or (now - window)
  local retry = window - (now - first)
  if retry < 0 then retry = 0 end
  return {0, count, retry}
end
return {1, count, 0}
`

// Decision is the outcome of one rate-limited attempt.
type Decision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// LoginLimiter throttles sign-in attempts per client.
type LoginLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
	script *redis.Script
}

func NewLoginLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		rdb:    rdb,
		prefix: prefix,
		limit:  limit,
		window: window,
		script: redis.NewScript(luaSlidingWindow),
	}
}

func (l *LoginLimiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	const op = "redisrepo.LoginLimiter.Allow"

	key := fmt.Sprintf("%s:%s", l.prefix, clientID)
	res, err := l.script.Run(
		ctx,
		l.rdb,
		[]string{key},
		time.Now().UnixMilli(), l.window.Milliseconds(), l.limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, wrapErr(op, err)
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
