package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the guard's tuning parameters.
type Config struct {
	Window      time.Duration
	MaxRequests int
	Prefix      string
}

// IPLimiter tracks request counts per client IP inside a fixed window and
// persists block records keyed by IP.
type IPLimiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates an [IPLimiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *IPLimiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "ag"
	}
	return &IPLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *IPLimiter) windowKey(ip string) string {
	return l.config.Prefix + ":win:" + ip
}

func (l *IPLimiter) blockKey(ip string) string {
	return l.config.Prefix + ":blk:" + ip
}

// Increment bumps the window counter for ip and returns [ErrRateLimited]
// once the count exceeds the configured budget. INCR+EXPIRE run in one
// pipeline so concurrent callers cannot both observe a pre-increment count.
func (l *IPLimiter) Increment(ctx context.Context, ip string) error {
	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, l.windowKey(ip))
	pipe.ExpireNX(ctx, l.windowKey(ip), l.config.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if incr.Val() > int64(l.config.MaxRequests) {
		return ErrRateLimited
	}

	return nil
}

// Count returns the current window counter for ip. Missing keys return zero.
func (l *IPLimiter) Count(ctx context.Context, ip string) (int, error) {
	count, err := l.redis.Get(ctx, l.windowKey(ip)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// Block upserts the block record for ip with the given deadline.
// Last write wins: a newer block replaces an older one, it does not stack.
func (l *IPLimiter) Block(ctx context.Context, ip string, blockedUntil time.Time) error {
	value := strconv.FormatInt(blockedUntil.Unix(), 10)
	if err := l.redis.Set(ctx, l.blockKey(ip), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// BlockedUntil returns the recorded block deadline for ip, or the zero time
// when no record exists. Callers decide liveness by comparing against now.
func (l *IPLimiter) BlockedUntil(ctx context.Context, ip string) (time.Time, error) {
	value, err := l.redis.Get(ctx, l.blockKey(ip)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: corrupt block record", ErrRedisUnavailable)
	}
	return time.Unix(unix, 0), nil
}
