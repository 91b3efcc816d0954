package repository

import (
	"context"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
)

// FilterMode selects which reviews a ReviewFilter matches.
type FilterMode int

const (
	// FilterGlobal matches every published review.
	FilterGlobal FilterMode = iota
	// FilterProduct matches reviews of ProductID.
	FilterProduct
	// FilterVariation matches reviews of VariationID.
	FilterVariation
	// FilterProductOrVariation matches reviews referencing ProductID or
	// VariationID. With both empty it degrades to FilterGlobal.
	FilterProductOrVariation
)

// Unbounded as a Limit returns every matching review.
const Unbounded = -1

// ReviewFilter defines filter criteria for listing reviews. Results are
// ordered by creation time, newest first.
type ReviewFilter struct {
	ProductID   string
	VariationID string
	Mode        FilterMode
	Limit       int
	Offset      int
}

// Effective resolves degenerate filters: product-or-variation with one id
// empty becomes a single-id filter, with both empty it becomes global.
func (f ReviewFilter) Effective() ReviewFilter {
	if f.Mode != FilterProductOrVariation {
		return f
	}
	switch {
	case f.ProductID == "" && f.VariationID == "":
		f.Mode = FilterGlobal
	case f.VariationID == "":
		f.Mode = FilterProduct
	case f.ProductID == "":
		f.Mode = FilterVariation
	}
	return f
}

// ForProduct is the filter used by product stats and product listings.
func ForProduct(productID, variationID string, limit int) ReviewFilter {
	return ReviewFilter{ProductID: productID, VariationID: variationID, Mode: FilterProductOrVariation, Limit: limit}
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review. Reviews are never updated.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a published review by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// Query returns published reviews matching filter, newest first.
	Query(ctx context.Context, filter ReviewFilter) ([]domain.Review, error)

	// ListRatings returns the rating of every published review matching
	// filter. Limit and Offset are ignored.
	ListRatings(ctx context.Context, filter ReviewFilter) ([]int, error)

	// Delete removes a review. Used by the admin path only.
	Delete(ctx context.Context, id string) error
}
