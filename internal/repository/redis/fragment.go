package redis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const fragmentGenKey = keyPrefix + "frag:gen"

// FragmentCache stores rendered HTML fragments. Every key embeds a
// generation number; InvalidateAll bumps it so all previous fragments
// become unreachable and age out through their TTL.
type FragmentCache struct {
	client *redis.Client
}

func NewFragmentCache(client *redis.Client) *FragmentCache {
	return &FragmentCache{client: client}
}

// FragmentKey builds reviews:frag:{gen}:{name}:{md5(params)}. params are
// encoded with sorted keys so equal maps give equal keys.
func FragmentKey(gen int64, name string, params map[string]string) string {
	v := make(url.Values, len(params))
	for k, p := range params {
		v.Set(k, p)
	}
	return keyPrefix + "frag:" + strconv.FormatInt(gen, 10) + ":" + name + ":" + hashKey(v.Encode())
}

func (c *FragmentCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, fragmentGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get fragment generation: %w", err)
	}
	return gen, nil
}

// Get returns the cached fragment, or ok=false on a miss. The generation it
// looked under is returned so a following Set lands in the same generation.
func (c *FragmentCache) Get(ctx context.Context, name string, params map[string]string) (string, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", 0, false, err
	}
	v, err := c.client.Get(ctx, FragmentKey(gen, name, params)).Result()
	if errors.Is(err, redis.Nil) {
		return "", gen, false, nil
	}
	if err != nil {
		return "", gen, false, fmt.Errorf("redis get fragment %s: %w", name, err)
	}
	return v, gen, true, nil
}

// Set stores html under generation gen. A fragment rendered before an
// InvalidateAll is written under the old generation and is never served.
func (c *FragmentCache) Set(ctx context.Context, gen int64, name string, params map[string]string, html string, ttl time.Duration) error {
	if err := c.client.Set(ctx, FragmentKey(gen, name, params), html, ttl).Err(); err != nil {
		return fmt.Errorf("redis set fragment %s: %w", name, err)
	}
	return nil
}

// InvalidateAll drops every cached fragment.
func (c *FragmentCache) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, fragmentGenKey).Err(); err != nil {
		return fmt.Errorf("redis bump fragment generation: %w", err)
	}
	return nil
}
