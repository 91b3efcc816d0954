package redis

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
)

func setupTestRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

// ---------------------------------------------------------------------------
// RateLimitStore
// ---------------------------------------------------------------------------

func TestRateLimitStore_FixedWindow(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRateLimitStore(client)
	ctx := context.Background()

	for i := range 5 {
		ok, err := store.Consume(ctx, "review_submit", "10.0.0.1", 5, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}
	ok, err := store.Consume(ctx, "review_submit", "10.0.0.1", 5, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	key := attemptsKey("review_submit", "10.0.0.1")
	v, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "5", v, "rejected attempts do not increment")

	// The window does not slide: TTL was set by the first attempt only.
	mr.FastForward(59 * time.Minute)
	ok, _ = store.Consume(ctx, "review_submit", "10.0.0.1", 5, time.Hour)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = store.Consume(ctx, "review_submit", "10.0.0.1", 5, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimitStore_KeysAreScoped(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRateLimitStore(client)
	ctx := context.Background()

	ok, _ := store.Consume(ctx, "review_submit", "10.0.0.1", 1, time.Hour)
	assert.True(t, ok)
	ok, _ = store.Consume(ctx, "review_submit", "10.0.0.2", 1, time.Hour)
	assert.True(t, ok)
	ok, _ = store.Consume(ctx, "other", "10.0.0.1", 1, time.Hour)
	assert.True(t, ok)

	assert.True(t, mr.Exists("reviews:rl:review_submit:"+hashKey("10.0.0.1")))
	assert.Equal(t, time.Hour, mr.TTL(attemptsKey("review_submit", "10.0.0.1")))
}

func TestRateLimitStore_LastSubmission(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRateLimitStore(client)
	ctx := context.Background()
	at := time.Date(2025, 6, 15, 12, 0, 0, 750*int(time.Millisecond), time.UTC)

	_, ok, err := store.LastSubmission(ctx, "42")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetLastSubmission(ctx, "42", at, 5*time.Minute))
	got, ok, err := store.LastSubmission(ctx, "42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, at, got, "sub-second part kept")
	stored, err := mr.Get(lastSubmissionKey("42"))
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(at.UnixMilli(), 10), stored)

	mr.FastForward(5 * time.Minute)
	_, ok, err = store.LastSubmission(ctx, "42")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateLimitStore_LastSubmissionCorrupt(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRateLimitStore(client)
	require.NoError(t, mr.Set(lastSubmissionKey("42"), "yesterday"))

	_, _, err := store.LastSubmission(context.Background(), "42")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// StatsCache
// ---------------------------------------------------------------------------

func TestStatsCache_RoundTripAndTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewStatsCache(client, 10*time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "42", "")
	require.NoError(t, err)
	assert.False(t, ok)

	want := &domain.Stats{ProductID: "42", AverageRating: 4.5, TotalReviews: 2}
	require.NoError(t, cache.Set(ctx, "42", "", want))
	assert.True(t, mr.Exists("reviews:stats:42:0"))

	got, ok, err := cache.Get(ctx, "42", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	mr.FastForward(10 * time.Minute)
	_, ok, _ = cache.Get(ctx, "42", "")
	assert.False(t, ok)
}

func TestStatsCache_Invalidate(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewStatsCache(client, 10*time.Minute)
	ctx := context.Background()
	s := &domain.Stats{AverageRating: 4, TotalReviews: 1}

	require.NoError(t, cache.Set(ctx, "42", "43", s))
	require.NoError(t, cache.Set(ctx, "42", "", s))
	require.NoError(t, cache.Set(ctx, "42", "44", s))
	require.NoError(t, cache.Set(ctx, "", "", s))
	require.NoError(t, cache.Set(ctx, "7", "", s))
	require.NoError(t, cache.SetGlobal(ctx, s))

	require.NoError(t, cache.Invalidate(ctx, "42", "43"))

	assert.False(t, mr.Exists("reviews:stats:42:43"))
	assert.False(t, mr.Exists("reviews:stats:42:0"))
	assert.False(t, mr.Exists("reviews:stats:0:0"))
	assert.False(t, mr.Exists("reviews:stats:global"))
	assert.True(t, mr.Exists("reviews:stats:42:44"))
	assert.True(t, mr.Exists("reviews:stats:7:0"))
}

// ---------------------------------------------------------------------------
// FragmentCache
// ---------------------------------------------------------------------------

func TestFragmentKey_StableAcrossMapOrder(t *testing.T) {
	a := FragmentKey(3, "list", map[string]string{"per_page": "20", "product_id": "42"})
	b := FragmentKey(3, "list", map[string]string{"product_id": "42", "per_page": "20"})
	assert.Equal(t, a, b)
	assert.Contains(t, a, "reviews:frag:3:list:")
	assert.NotEqual(t, a, FragmentKey(4, "list", map[string]string{"per_page": "20", "product_id": "42"}))
}

func TestFragmentCache_InvalidateAll(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewFragmentCache(client)
	ctx := context.Background()
	params := map[string]string{"limit": "10"}

	_, gen, ok, err := cache.Get(ctx, "carousel", params)
	require.NoError(t, err)
	require.False(t, ok)
	assert.Zero(t, gen)

	require.NoError(t, cache.Set(ctx, gen, "carousel", params, "<div>x</div>", 10*time.Minute))
	got, _, ok, err := cache.Get(ctx, "carousel", params)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<div>x</div>", got)

	require.NoError(t, cache.InvalidateAll(ctx))
	_, gen, ok, err = cache.Get(ctx, "carousel", params)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), gen)

	rawGen, err := mr.Get(fragmentGenKey)
	require.NoError(t, err)
	assert.Equal(t, "1", rawGen)
}

func TestFragmentCache_SetUnderOldGenerationIsUnreachable(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewFragmentCache(client)
	ctx := context.Background()

	_, gen, _, err := cache.Get(ctx, "list", nil)
	require.NoError(t, err)
	require.NoError(t, cache.InvalidateAll(ctx))
	require.NoError(t, cache.Set(ctx, gen, "list", nil, "old", time.Minute))

	_, _, ok, err := cache.Get(ctx, "list", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// LastOrderCache
// ---------------------------------------------------------------------------

func TestLastOrderCache(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewLastOrderCache(client, 5*time.Minute)
	ctx := context.Background()
	order := &domain.LastOrder{OrderID: "o1", Items: []domain.OrderItem{{ItemID: "i1", ProductID: "42", Label: "Caneca"}}}

	require.NoError(t, cache.Set(ctx, "42", order))
	got, ok, err := cache.Get(ctx, "42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, order, got)
	assert.Equal(t, 5*time.Minute, mr.TTL(lastOrderKey("42")))

	require.NoError(t, cache.Delete(ctx, "42"))
	_, ok, err = cache.Get(ctx, "42")
	require.NoError(t, err)
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// SecurityLog
// ---------------------------------------------------------------------------

func TestSecurityLog_KeepsNewest(t *testing.T) {
	client, _ := setupTestRedis(t)
	log := NewSecurityLog(client, 3)
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, log.Append(ctx, domain.SecurityEvent{
			Event: domain.EventSpamDetected,
			IP:    fmt.Sprintf("10.0.0.%d", i),
		}))
	}

	events, err := log.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "10.0.0.4", events[0].IP)
	assert.Equal(t, "10.0.0.2", events[2].IP)
}
