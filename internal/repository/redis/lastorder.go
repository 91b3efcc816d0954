package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
)

// LastOrderCache keeps each user's last eligible order for a short time.
type LastOrderCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLastOrderCache(client *redis.Client, ttl time.Duration) *LastOrderCache {
	return &LastOrderCache{client: client, ttl: ttl}
}

func lastOrderKey(userID string) string {
	return keyPrefix + "last_order:" + userID
}

func (c *LastOrderCache) Get(ctx context.Context, userID string) (*domain.LastOrder, bool, error) {
	data, err := c.client.Get(ctx, lastOrderKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get last order: %w", err)
	}
	var order domain.LastOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, false, fmt.Errorf("unmarshal last order: %w", err)
	}
	return &order, true, nil
}

func (c *LastOrderCache) Set(ctx context.Context, userID string, order *domain.LastOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal last order: %w", err)
	}
	if err := c.client.Set(ctx, lastOrderKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set last order: %w", err)
	}
	return nil
}

func (c *LastOrderCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, lastOrderKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del last order: %w", err)
	}
	return nil
}
