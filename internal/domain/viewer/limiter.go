package viewer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MountLimiter caps how many viewers one client may mount per window.
// Counts live in Redis when a client is configured, otherwise in process memory.
type MountLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	local  *windowLimiter
}

// NewMountLimiter creates a limiter. A limit below one disables it.
func NewMountLimiter(redisClient *redis.Client, limit int, window time.Duration) *MountLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &MountLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
		local:  newWindowLimiter(limit, window),
	}
}

// Allow records one mount by key and reports whether it is within the limit
func (l *MountLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.limit < 1 {
		return true
	}
	if l.redis == nil {
		return l.local.Allow(key)
	}

	redisKey := fmt.Sprintf("ratelimit:viewer_mount:%s", key)
	count, err := l.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		// Fail open
		log.Warn().Err(err).Msg("Mount rate limiter unavailable")
		return true
	}
	if count == 1 {
		l.redis.Expire(ctx, redisKey, l.window)
	}
	return count <= int64(l.limit)
}

type windowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	calls  map[string][]time.Time
}

func newWindowLimiter(limit int, window time.Duration) *windowLimiter {
	return &windowLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		calls:  make(map[string][]time.Time),
	}
}

func (l *windowLimiter) Allow(key string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamps := l.calls[key]
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.limit {
		l.calls[key] = kept
		return false
	}

	l.calls[key] = append(kept, now)
	return true
}
