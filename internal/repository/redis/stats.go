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

const globalStatsKey = keyPrefix + "stats:global"

// StatsCache stores aggregated rating snapshots as JSON.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// StatsKey is the cache key of a product snapshot; an empty variation is
// rendered as 0.
func StatsKey(productID, variationID string) string {
	return keyPrefix + "stats:" + idOrZero(productID) + ":" + idOrZero(variationID)
}

// Get returns the product snapshot, or ok=false on a miss.
func (c *StatsCache) Get(ctx context.Context, productID, variationID string) (*domain.Stats, bool, error) {
	return c.get(ctx, StatsKey(productID, variationID))
}

func (c *StatsCache) Set(ctx context.Context, productID, variationID string, stats *domain.Stats) error {
	return c.set(ctx, StatsKey(productID, variationID), stats)
}

func (c *StatsCache) GetGlobal(ctx context.Context) (*domain.Stats, bool, error) {
	return c.get(ctx, globalStatsKey)
}

func (c *StatsCache) SetGlobal(ctx context.Context, stats *domain.Stats) error {
	return c.set(ctx, globalStatsKey, stats)
}

// Invalidate drops the (product, variation) and (product, 0) snapshots and
// the global one in a single DEL. The id-less product snapshot (0:0) is a
// global scan too, so it goes as well.
func (c *StatsCache) Invalidate(ctx context.Context, productID, variationID string) error {
	keys := []string{
		StatsKey(productID, variationID),
		StatsKey(productID, ""),
		StatsKey("", ""),
		globalStatsKey,
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del stats: %w", err)
	}
	return nil
}

func (c *StatsCache) get(ctx context.Context, key string) (*domain.Stats, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get stats: %w", err)
	}
	var stats domain.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, false, fmt.Errorf("unmarshal stats: %w", err)
	}
	return &stats, true, nil
}

func (c *StatsCache) set(ctx context.Context, key string, stats *domain.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set stats: %w", err)
	}
	return nil
}
