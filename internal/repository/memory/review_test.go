package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
	"github.com/gustavofullstack/udia-reviews-v2/internal/repository"
	apperrors "github.com/gustavofullstack/udia-reviews-v2/pkg/errors"
)

var base = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T) *ReviewRepository {
	t.Helper()
	repo := NewReviewRepository()
	reviews := []domain.Review{
		{ID: "a", Rating: 5, ProductID: "42", CreatedAt: base},
		{ID: "b", Rating: 3, ProductID: "42", VariationID: "43", CreatedAt: base.Add(time.Minute)},
		{ID: "c", Rating: 4, VariationID: "43", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "d", Rating: 1, ProductLabel: "Caneca", CreatedAt: base.Add(3 * time.Minute)},
		{ID: "e", Rating: 2, ProductID: "42", CreatedAt: base.Add(time.Minute)},
	}
	for i := range reviews {
		reviews[i].Status = domain.StatusPublished
		require.NoError(t, repo.Create(context.Background(), &reviews[i]))
	}
	return repo
}

func ids(reviews []domain.Review) []string {
	out := make([]string, len(reviews))
	for i, r := range reviews {
		out[i] = r.ID
	}
	return out
}

func TestReviewRepository_QueryModes(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter repository.ReviewFilter
		want   []string
	}{
		{"global newest first with id tie-break", repository.ReviewFilter{Limit: repository.Unbounded}, []string{"d", "c", "e", "b", "a"}},
		{"product", repository.ReviewFilter{ProductID: "42", Mode: repository.FilterProduct, Limit: -1}, []string{"e", "b", "a"}},
		{"variation", repository.ReviewFilter{VariationID: "43", Mode: repository.FilterVariation, Limit: -1}, []string{"c", "b"}},
		{"product or variation", repository.ForProduct("42", "43", repository.Unbounded), []string{"c", "e", "b", "a"}},
		{"limit", repository.ReviewFilter{Limit: 2}, []string{"d", "c"}},
		{"offset", repository.ReviewFilter{Limit: 2, Offset: 3}, []string{"b", "a"}},
		{"offset past end", repository.ReviewFilter{Limit: 2, Offset: 10}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestReviewRepository_ListRatings(t *testing.T) {
	repo := seed(t)
	got, err := repo.ListRatings(context.Background(), repository.ForProduct("42", "", 1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{5, 3, 2}, got)
}

func TestReviewRepository_GetAndDelete(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()

	got, err := repo.GetByID(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "Caneca", got.ProductLabel)

	require.NoError(t, repo.Delete(ctx, "d"))
	_, err = repo.GetByID(ctx, "d")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "d"), apperrors.ErrNotFound)
}

func TestReviewRepository_CreateDuplicate(t *testing.T) {
	repo := seed(t)
	err := repo.Create(context.Background(), &domain.Review{ID: "a"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}
