package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// FragmentStore holds rendered output. Implemented by redis.FragmentCache.
type FragmentStore interface {
	Get(ctx context.Context, name string, params map[string]string) (value string, gen int64, hit bool, err error)
	Set(ctx context.Context, gen int64, name string, params map[string]string, value string, ttl time.Duration) error
	InvalidateAll(ctx context.Context) error
}

// FragmentCache memoizes rendered read payloads by name and parameters.
type FragmentCache struct {
	store  FragmentStore
	logger *slog.Logger
}

func NewFragmentCache(store FragmentStore, logger *slog.Logger) *FragmentCache {
	return &FragmentCache{store: store, logger: logger}
}

// GetOrRender returns the cached fragment or renders and stores it under the
// generation seen before rendering. Store failures are logged and the
// fragment is rendered uncached.
func (c *FragmentCache) GetOrRender(ctx context.Context, name string, params map[string]string, ttl time.Duration, render func(context.Context) (string, error)) (string, error) {
	v, gen, hit, err := c.store.Get(ctx, name, params)
	cacheable := err == nil
	if err != nil {
		cacheErrorsTotal.WithLabelValues("fragment", "get").Inc()
		c.logger.WarnContext(ctx, "fragment cache read failed",
			slog.String("fragment", name),
			slog.String("error", err.Error()),
		)
	}
	cacheResult("fragment", hit)
	if hit {
		return v, nil
	}

	v, err = render(ctx)
	if err != nil {
		return "", err
	}
	if !cacheable {
		return v, nil
	}
	if err := c.store.Set(ctx, gen, name, params, v, ttl); err != nil {
		cacheErrorsTotal.WithLabelValues("fragment", "set").Inc()
		c.logger.WarnContext(ctx, "fragment cache write failed",
			slog.String("fragment", name),
			slog.String("error", err.Error()),
		)
	}
	return v, nil
}

// InvalidateAll drops every cached fragment.
func (c *FragmentCache) InvalidateAll(ctx context.Context) error {
	if err := c.store.InvalidateAll(ctx); err != nil {
		cacheErrorsTotal.WithLabelValues("fragment", "invalidate").Inc()
		return fmt.Errorf("invalidate fragments: %w", err)
	}
	return nil
}

// cachedView runs build through the fragment cache, storing its result as
// JSON so structured data and its HTML are served together.
func cachedView[T any](ctx context.Context, c *FragmentCache, name string, params map[string]string, ttl time.Duration, build func(context.Context) (*T, error)) (*T, error) {
	raw, err := c.GetOrRender(ctx, name, params, ttl, func(ctx context.Context) (string, error) {
		v, err := build(ctx)
		if err != nil {
			return "", err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("marshal %s view: %w", name, err)
		}
		return string(data), nil
	})
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s view: %w", name, err)
	}
	return &v, nil
}
