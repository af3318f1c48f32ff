package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Kuany4953/wasil-sub000/domain"
)

// Sliding window over a sorted set: scores are request timestamps in
// milliseconds. Expired members are pruned, the survivors counted, and the
// request is recorded only when admitted so a denied burst cannot extend its
// own lockout. ARGV: now-ms, window-ms, max, member.
const rateLimitScript = `
redis.call("ZREMRANGEBYSCORE", KEYS[1], 0, tonumber(ARGV[1]) - tonumber(ARGV[2]))
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[3]) then
  return 0
end
redis.call("ZADD", KEYS[1], ARGV[1], ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[2])
return 1
`

// RedisEvaler is the slice of the Redis client the limiter needs
type RedisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisRateLimiter implements domain.RateLimiter with a rolling window per
// caller key. The prune-count-record sequence runs in a Lua script so
// concurrent requests from the same key cannot race past the limit, and a
// request admitted now still counts against callers a full window later; no
// boundary exists where a fresh burst doubles the budget.
type RedisRateLimiter struct {
	client RedisEvaler
	window time.Duration
	max    int
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisRateLimiter creates a rate limiter allowing max requests per window.
func NewRedisRateLimiter(client RedisEvaler, window time.Duration, max int, logger *zap.Logger) *RedisRateLimiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &RedisRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "otp:rl:",
		logger: logger,
		now:    time.Now,
	}
}

// Allow reports whether the caller identified by key may proceed. The limiter
// fails open when Redis is unreachable: the OTP store is degraded to memory in
// the same deployment state and blocking all logins would be worse than
// losing the limit.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	if l.client == nil {
		return true
	}
	if key == "" {
		return false
	}

	admitted, err := l.client.Eval(ctx, rateLimitScript,
		[]string{l.prefix + key},
		l.now().UnixMilli(), l.window.Milliseconds(), l.max, uuid.NewString(),
	).Int()
	if err != nil {
		l.logger.Warn("rate limiter unavailable, failing open", zap.Error(err))
		return true
	}
	return admitted == 1
}

var _ domain.RateLimiter = (*RedisRateLimiter)(nil)
