package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
	"github.com/gustavofullstack/udia-reviews-v2/internal/repository"
	apperrors "github.com/gustavofullstack/udia-reviews-v2/pkg/errors"
)

// ReviewRepository keeps reviews in process memory. It backs tests and
// single-node deployments without PostgreSQL.
type ReviewRepository struct {
	mu      sync.RWMutex
	reviews map[string]domain.Review
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{reviews: make(map[string]domain.Review)}
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

func (r *ReviewRepository) Create(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[review.ID]; ok {
		return apperrors.AlreadyExists("review", "id", review.ID)
	}
	r.reviews[review.ID] = *review
	return nil
}

func (r *ReviewRepository) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rv, ok := r.reviews[id]
	if !ok || rv.Status != domain.StatusPublished {
		return nil, apperrors.NotFound("review", id)
	}
	return &rv, nil
}

func (r *ReviewRepository) Query(_ context.Context, filter repository.ReviewFilter) ([]domain.Review, error) {
	matched := r.match(filter)
	slices.SortFunc(matched, func(a, b domain.Review) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	if off := filter.Offset; off > 0 {
		if off >= len(matched) {
			return []domain.Review{}, nil
		}
		matched = matched[off:]
	}
	if filter.Limit != repository.Unbounded && filter.Limit < len(matched) {
		matched = matched[:max(filter.Limit, 0)]
	}
	return matched, nil
}

func (r *ReviewRepository) ListRatings(_ context.Context, filter repository.ReviewFilter) ([]int, error) {
	matched := r.match(filter)
	ratings := make([]int, len(matched))
	for i, rv := range matched {
		ratings[i] = rv.Rating
	}
	return ratings, nil
}

func (r *ReviewRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[id]; !ok {
		return apperrors.NotFound("review", id)
	}
	delete(r.reviews, id)
	return nil
}

func (r *ReviewRepository) match(filter repository.ReviewFilter) []domain.Review {
	f := filter.Effective()
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Review{}
	for _, rv := range r.reviews {
		if rv.Status != domain.StatusPublished {
			continue
		}
		var ok bool
		switch f.Mode {
		case repository.FilterProduct:
			ok = rv.ProductID == f.ProductID
		case repository.FilterVariation:
			ok = rv.VariationID == f.VariationID
		case repository.FilterProductOrVariation:
			ok = rv.ProductID == f.ProductID || rv.VariationID == f.VariationID
		default:
			ok = true
		}
		if ok {
			out = append(out, rv)
		}
	}
	return out
}
