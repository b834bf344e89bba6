package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/gstbook/internal/config"
)

const keyWrite = "gstbook:write:%s:%s"

// WriteLimiter throttles document-producing endpoints per caller.
// A nil *WriteLimiter allows everything.
type WriteLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewWriteLimiter(cfg config.Config, bucket *TokenBucket) (*WriteLimiter, error) {
	if !cfg.RateLimit.Enabled || bucket == nil {
		return nil, nil
	}
	if cfg.RateLimit.WriteRate <= 0 || cfg.RateLimit.WriteBurst <= 0 {
		return nil, fmt.Errorf("%w: write rate and burst must be positive", ErrInvalidLimit)
	}
	return &WriteLimiter{
		bucket: bucket,
		rate:   cfg.RateLimit.WriteRate,
		burst:  cfg.RateLimit.WriteBurst,
	}, nil
}

func (l *WriteLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow spends one token from the caller's bucket for endpoint.
func (l *WriteLimiter) Allow(ctx context.Context, endpoint, caller string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyWrite, strings.TrimSpace(endpoint), strings.ToLower(strings.TrimSpace(caller)))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
