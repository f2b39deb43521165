package authgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authgate/internal/rate"
)

// AbuseGuard enforces the per-IP request budget and the follow-on block.
// Crossing the budget inside one window blocks the IP for the configured
// duration; subsequent breaches overwrite the block record rather than
// stacking on top of it.
//
// AbuseGuard instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AbuseGuard struct {
	limiter *rate.IPLimiter
	config  AbuseGuardConfig
	now     func() time.Time

	// onBlock is invoked after a budget breach installs a block record.
	onBlock func(ctx context.Context, ip string)
}

// NewAbuseGuard describes the newabuseguard operation and its observable behavior.
//
// NewAbuseGuard may return an error when input validation, dependency calls, or security checks fail.
// NewAbuseGuard does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewAbuseGuard(redisClient redis.UniversalClient, cfg AbuseGuardConfig) *AbuseGuard {
	return &AbuseGuard{
		limiter: rate.New(redisClient, rate.Config{
			Window:      cfg.Window,
			MaxRequests: cfg.MaxRequests,
			Prefix:      cfg.RedisPrefix,
		}),
		config: cfg,
		now:    time.Now,
	}
}

// IsBlocked reports whether ip has a live block and when it lapses. Expired
// block records stay in place and simply stop matching.
func (g *AbuseGuard) IsBlocked(ctx context.Context, ip string) (bool, time.Time, error) {
	until, err := g.limiter.BlockedUntil(ctx, ip)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if until.IsZero() || !until.After(g.now()) {
		return false, time.Time{}, nil
	}
	return true, until, nil
}

// RecordRequest counts one request from ip against the current window. When
// the count crosses the budget the IP is blocked and [ErrTooManyRequests]
// is returned; the triggering request itself is rejected.
func (g *AbuseGuard) RecordRequest(ctx context.Context, ip string) error {
	err := g.limiter.Increment(ctx, ip)
	if err == nil {
		return nil
	}
	if !errors.Is(err, rate.ErrRateLimited) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if blockErr := g.Block(ctx, ip); blockErr != nil {
		return blockErr
	}
	if g.onBlock != nil {
		g.onBlock(ctx, ip)
	}
	return ErrTooManyRequests
}

// Block records a block for ip lasting the configured duration from now.
// Last write wins: re-blocking an already blocked IP moves the deadline.
func (g *AbuseGuard) Block(ctx context.Context, ip string) error {
	until := g.now().Add(g.config.BlockDuration)
	if err := g.limiter.Block(ctx, ip, until); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
