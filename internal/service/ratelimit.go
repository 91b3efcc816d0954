package service

import (
	"context"
	"fmt"
	"time"
)

// AttemptStore persists rate-limit counters and last-submission times.
// Implemented by redis.RateLimitStore.
type AttemptStore interface {
	Consume(ctx context.Context, action, identity string, maxAttempts int, window time.Duration) (bool, error)
	LastSubmission(ctx context.Context, userID string) (time.Time, bool, error)
	SetLastSubmission(ctx context.Context, userID string, at time.Time, ttl time.Duration) error
}

// RateLimitPolicy is the submission throttling configuration.
type RateLimitPolicy struct {
	Action      string
	MaxAttempts int
	Window      time.Duration
	Interval    time.Duration
}

// DefaultRateLimitPolicy allows 5 attempts per IP per hour and one review
// per user every 5 minutes.
func DefaultRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{
		Action:      "review_submit",
		MaxAttempts: 5,
		Window:      time.Hour,
		Interval:    5 * time.Minute,
	}
}

// RateLimiter combines a fixed-window attempt counter with a per-user
// minimum interval between submissions.
type RateLimiter struct {
	store  AttemptStore
	policy RateLimitPolicy
	now    func() time.Time
}

func NewRateLimiter(store AttemptStore, policy RateLimitPolicy) *RateLimiter {
	return &RateLimiter{store: store, policy: policy, now: time.Now}
}

// WithClock replaces the time source.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

func (l *RateLimiter) Policy() RateLimitPolicy { return l.policy }

// CheckAndConsume counts one attempt for (action, identity). It returns
// false, leaving the counter untouched, once maxAttempts is reached within
// the window.
func (l *RateLimiter) CheckAndConsume(ctx context.Context, identity, action string, maxAttempts int, window time.Duration) (bool, error) {
	ok, err := l.store.Consume(ctx, action, identity, maxAttempts, window)
	if err != nil {
		return false, fmt.Errorf("consume attempt: %w", err)
	}
	return ok, nil
}

// CheckInterval reports whether userID may submit now. When not, retryAfter
// is the time left until the interval has elapsed.
func (l *RateLimiter) CheckInterval(ctx context.Context, userID string, interval time.Duration) (ok bool, retryAfter time.Duration, err error) {
	last, found, err := l.store.LastSubmission(ctx, userID)
	if err != nil {
		return false, 0, fmt.Errorf("read last submission: %w", err)
	}
	if !found {
		return true, 0, nil
	}
	if elapsed := l.now().Sub(last); elapsed < interval {
		return false, interval - elapsed, nil
	}
	return true, 0, nil
}

// MarkSubmitted records a successful submission by userID at at.
func (l *RateLimiter) MarkSubmitted(ctx context.Context, userID string, at time.Time) error {
	if err := l.store.SetLastSubmission(ctx, userID, at, l.policy.Interval); err != nil {
		return fmt.Errorf("mark submitted: %w", err)
	}
	return nil
}
