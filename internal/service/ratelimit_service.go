package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitDecision is a scheduling signal, not an error: a disallowed
// call carries the delay after which the caller may try again.
type RateLimitDecision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type RateLimiter interface {
	Check(ctx context.Context, resource string, subjectID int64) (RateLimitDecision, error)
}

type redisRateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, limit int64, window time.Duration) RateLimiter {
	return &redisRateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
	}
}

// Check consumes one unit of the subject's budget in a fixed window
// counter. The counter is the gate's own state; callers only see the
// decision. A Redis outage fails open so the pipeline keeps moving.
func (l *redisRateLimiter) Check(ctx context.Context, resource string, subjectID int64) (RateLimitDecision, error) {
	key := fmt.Sprintf("ratelimit:%s:%d", resource, subjectID)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		slog.Info(err.Error())
		return RateLimitDecision{Allowed: true}, nil
	}

	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			slog.Info(err.Error())
		}
	}

	if count > l.limit {
		ttl, err := l.rdb.TTL(ctx, key).Result()
		if err != nil || ttl <= 0 {
			ttl = l.window
		}
		return RateLimitDecision{Allowed: false, RetryAfter: ttl}, nil
	}

	return RateLimitDecision{Allowed: true}, nil
}
