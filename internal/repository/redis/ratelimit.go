package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript increments a fixed-window counter unless it already reached
// the limit. The expiry is set only when the counter is created, so the
// window never slides. Returns -1 when the limit was reached.
var consumeScript = redis.NewScript(`
local c = tonumber(redis.call('GET', KEYS[1]) or '0')
if c >= tonumber(ARGV[1]) then
	return -1
end
c = redis.call('INCR', KEYS[1])
if c == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return c
`)

// RateLimitStore keeps attempt counters and last-submission timestamps.
type RateLimitStore struct {
	client *redis.Client
}

func NewRateLimitStore(client *redis.Client) *RateLimitStore {
	return &RateLimitStore{client: client}
}

func attemptsKey(action, identity string) string {
	return keyPrefix + "rl:" + action + ":" + hashKey(identity)
}

func lastSubmissionKey(userID string) string {
	return keyPrefix + "last:" + userID
}

// Consume records one attempt for (action, identity) and reports whether it
// was within maxAttempts. A rejected attempt does not touch the counter.
func (s *RateLimitStore) Consume(ctx context.Context, action, identity string, maxAttempts int, window time.Duration) (bool, error) {
	secs := int64(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	n, err := consumeScript.Run(ctx, s.client, []string{attemptsKey(action, identity)}, maxAttempts, secs).Int64()
	if err != nil {
		return false, fmt.Errorf("redis consume %s: %w", action, err)
	}
	return n != -1, nil
}

// LastSubmission returns the stored submission time of userID. ok is false
// when none is stored or it already expired.
func (s *RateLimitStore) LastSubmission(ctx context.Context, userID string) (at time.Time, ok bool, err error) {
	v, err := s.client.Get(ctx, lastSubmissionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get last submission: %w", err)
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last submission %q: %w", v, err)
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

// SetLastSubmission stores at (unix milliseconds) for userID; the key
// expires after ttl.
func (s *RateLimitStore) SetLastSubmission(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	if err := s.client.Set(ctx, lastSubmissionKey(userID), at.UnixMilli(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set last submission: %w", err)
	}
	return nil
}
