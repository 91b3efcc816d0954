package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
)

func seedReview(t *testing.T, env *testEnv, id, productID, variationID string, rating int) {
	t.Helper()
	require.NoError(t, env.repo.Create(context.Background(), &domain.Review{
		ID: id, AuthorID: "u" + id, AuthorName: "Cliente", Rating: rating, Content: "conteúdo da avaliação",
		ProductID: productID, VariationID: variationID, ProductLabel: "Produto",
		Status: domain.StatusPublished, CreatedAt: env.clock.Now(),
	}))
	env.clock.Advance(time.Second)
}

func TestStats_ZeroDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.stats.ProductStats(ctx, "42", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, product.AverageRating)
	assert.Equal(t, 0, product.TotalReviews)

	global, err := env.stats.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, global.AverageRating)
	assert.Equal(t, 0, global.TotalReviews)
}

func TestStats_ProductOrVariation(t *testing.T) {
	env := newTestEnv(t)
	seedReview(t, env, "1", "42", "", 5)
	seedReview(t, env, "2", "42", "43", 4)
	seedReview(t, env, "3", "", "43", 4)
	seedReview(t, env, "4", "99", "", 1)

	got, err := env.stats.ProductStats(context.Background(), "42", "43")
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalReviews)
	assert.Equal(t, 4.3, got.AverageRating)
	assert.Equal(t, "42", got.ProductID)
	assert.Equal(t, "43", got.VariationID)
}

func TestStats_ClampsCorruptRatings(t *testing.T) {
	env := newTestEnv(t)
	seedReview(t, env, "1", "42", "", 0)
	seedReview(t, env, "2", "42", "", 12)

	got, err := env.stats.ProductStats(context.Background(), "42", "")
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.AverageRating)
}

func TestStats_NoIDsScansGlobalWithProductDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	got, err := env.stats.ProductStats(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.AverageRating)

	seedReview(t, env, "1", "", "", 2)
	require.NoError(t, env.stats.Invalidate(ctx, "", ""))
	got, err = env.stats.ProductStats(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.AverageRating)
	assert.Equal(t, 1, got.TotalReviews)
}

func TestStats_ReadThroughUntilInvalidated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedReview(t, env, "1", "42", "", 5)

	first, err := env.stats.ProductStats(ctx, "42", "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalReviews)
	assert.True(t, env.mr.Exists("reviews:stats:42:0"))

	// Written behind the cache's back: still served from cache.
	seedReview(t, env, "2", "42", "", 1)
	cached, err := env.stats.ProductStats(ctx, "42", "")
	require.NoError(t, err)
	assert.Equal(t, 1, cached.TotalReviews)

	require.NoError(t, env.stats.Invalidate(ctx, "42", "7"))
	fresh, err := env.stats.ProductStats(ctx, "42", "")
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TotalReviews)
	assert.Equal(t, 3.0, fresh.AverageRating)
}

func TestStats_TTL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.stats.GlobalStats(ctx)
	require.NoError(t, err)
	seedReview(t, env, "1", "42", "", 3)

	env.clock.Advance(10 * time.Minute)
	got, err := env.stats.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.AverageRating)
}

func TestStats_CacheDownFallsBackToStore(t *testing.T) {
	env := newTestEnv(t)
	seedReview(t, env, "1", "42", "", 4)
	env.mr.SetError("LOADING")

	got, err := env.stats.ProductStats(context.Background(), "42", "")
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.AverageRating)

	assert.Error(t, env.stats.Invalidate(context.Background(), "42", ""))
}
