package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter decides whether a keyed request may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// slidingWindow counts requests per key over a rolling interval. Timestamps
// older than the window are pruned on each check, so memory stays bounded
// by the per-key limit.
type slidingWindow struct {
	mu     sync.Mutex
	seen   map[string][]time.Time
	limit  int
	window time.Duration
}

func newSlidingWindow(limit int, window time.Duration) *slidingWindow {
	return &slidingWindow{
		seen:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

func (l *slidingWindow) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	kept := l.seen[key][:0]
	for _, at := range l.seen[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= l.limit {
		l.seen[key] = kept
		return false, nil
	}

	l.seen[key] = append(kept, now)
	return true, nil
}

func (l *slidingWindow) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.seen, key)
	l.mu.Unlock()
	return nil
}

// IPRateLimiter throttles unauthenticated traffic by client address.
type IPRateLimiter struct {
	limiter RateLimiter
}

func NewIPRateLimiter(requestsPerMinute int) *IPRateLimiter {
	return &IPRateLimiter{limiter: newSlidingWindow(requestsPerMinute, time.Minute)}
}

func (l *IPRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	return l.limiter.Allow(ctx, "ip:"+ip)
}

// UserRateLimiter throttles authenticated traffic by user ID, so one user
// cannot starve others sharing the same NAT address.
type UserRateLimiter struct {
	limiter RateLimiter
}

func NewUserRateLimiter(requestsPerMinute int) *UserRateLimiter {
	return &UserRateLimiter{limiter: newSlidingWindow(requestsPerMinute, time.Minute)}
}

func (l *UserRateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	return l.limiter.Allow(ctx, "user:"+userID)
}
