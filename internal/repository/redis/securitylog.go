package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
)

const securityLogKey = keyPrefix + "security_log"

// SecurityLog is a capped list of suspicious-activity entries, newest first.
type SecurityLog struct {
	client *redis.Client
	max    int64
}

func NewSecurityLog(client *redis.Client, max int) *SecurityLog {
	return &SecurityLog{client: client, max: int64(max)}
}

// Append pushes entry and trims the list to the configured size.
func (l *SecurityLog) Append(ctx context.Context, entry domain.SecurityEvent) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal security event: %w", err)
	}
	pipe := l.client.TxPipeline()
	pipe.LPush(ctx, securityLogKey, data)
	pipe.LTrim(ctx, securityLogKey, 0, l.max-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append security event: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (l *SecurityLog) Recent(ctx context.Context, n int) ([]domain.SecurityEvent, error) {
	raw, err := l.client.LRange(ctx, securityLogKey, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read security log: %w", err)
	}
	events := make([]domain.SecurityEvent, 0, len(raw))
	for _, r := range raw {
		var ev domain.SecurityEvent
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			return nil, fmt.Errorf("unmarshal security event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}
