package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
	"github.com/gustavofullstack/udia-reviews-v2/internal/repository"
	apperrors "github.com/gustavofullstack/udia-reviews-v2/pkg/errors"
)

// Renderer produces HTML fragments. Implemented by render.Renderer.
type Renderer interface {
	Card(card domain.ReviewCard) (string, error)
	List(cards []domain.ReviewCard) (string, error)
	ProductReviews(cards []domain.ReviewCard) (string, error)
	Carousel(cards []domain.ReviewCard) (string, error)
	ProductSummary(stats domain.Stats) (string, error)
	GlobalSummary(stats domain.Stats) (string, error)
}

// Fragment names, also used as cache key segments.
const (
	FragmentList           = "list"
	FragmentProductReviews = "product_reviews"
	FragmentCarousel       = "carousel"
	FragmentProductSummary = "product_summary"
	FragmentGlobalSummary  = "global_summary"
)

const (
	DefaultListSize     = 20
	DefaultCarouselSize = 10
)

// ReviewListView is a page of reviews with its rendered markup.
type ReviewListView struct {
	Reviews []domain.ReviewCard `json:"reviews"`
	HTML    string              `json:"html"`
}

// ReviewView is a single review with its rendered card.
type ReviewView struct {
	Review domain.ReviewCard `json:"review"`
	HTML   string            `json:"html"`
}

// SummaryView is a rating summary with its rendered star row.
type SummaryView struct {
	Stats         domain.Stats `json:"stats"`
	DisplayRating float64      `json:"display_rating"`
	HTML          string       `json:"html"`
}

// ListQuery selects a review listing. Empty ids list every review.
// Limit -1 is unbounded.
type ListQuery struct {
	ProductID   string
	VariationID string
	Limit       int
	Offset      int
}

// ListingService serves the read-only review views.
type ListingService struct {
	repo      repository.ReviewRepository
	stats     *StatsService
	render    Renderer
	fragments *FragmentCache
	ttl       time.Duration
}

func NewListingService(repo repository.ReviewRepository, stats *StatsService, render Renderer, fragments *FragmentCache, ttl time.Duration) *ListingService {
	return &ListingService{repo: repo, stats: stats, render: render, fragments: fragments, ttl: ttl}
}

// List returns reviews newest first. With a product or variation id it
// lists reviews referencing either.
func (s *ListingService) List(ctx context.Context, q ListQuery) (*ReviewListView, error) {
	name := FragmentList
	filter := repository.ReviewFilter{Mode: repository.FilterGlobal, Limit: q.Limit, Offset: q.Offset}
	if q.ProductID != "" || q.VariationID != "" {
		name = FragmentProductReviews
		filter = repository.ForProduct(q.ProductID, q.VariationID, q.Limit)
		filter.Offset = q.Offset
	}
	params := map[string]string{
		"product_id":   q.ProductID,
		"variation_id": q.VariationID,
		"limit":        strconv.Itoa(q.Limit),
		"offset":       strconv.Itoa(q.Offset),
	}

	return cachedView(ctx, s.fragments, name, params, s.ttl, func(ctx context.Context) (*ReviewListView, error) {
		reviews, err := s.repo.Query(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("query reviews: %w", err)
		}
		cards := cardsOf(reviews)
		renderFn := s.render.List
		if name == FragmentProductReviews {
			renderFn = s.render.ProductReviews
		}
		html, err := renderFn(cards)
		if err != nil {
			return nil, err
		}
		return &ReviewListView{Reviews: cards, HTML: html}, nil
	})
}

// Get returns one published review.
func (s *ListingService) Get(ctx context.Context, id string) (*ReviewView, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	card := domain.NewReviewCard(*review)
	html, err := s.render.Card(card)
	if err != nil {
		return nil, err
	}
	return &ReviewView{Review: card, HTML: html}, nil
}

// Carousel returns the newest reviews with content cut to an excerpt.
func (s *ListingService) Carousel(ctx context.Context, limit int) (*ReviewListView, error) {
	if limit == 0 {
		limit = DefaultCarouselSize
	}
	params := map[string]string{"limit": strconv.Itoa(limit)}

	return cachedView(ctx, s.fragments, FragmentCarousel, params, s.ttl, func(ctx context.Context) (*ReviewListView, error) {
		reviews, err := s.repo.Query(ctx, repository.ReviewFilter{Mode: repository.FilterGlobal, Limit: limit})
		if err != nil {
			return nil, fmt.Errorf("query carousel: %w", err)
		}
		cards := cardsOf(reviews)
		for i := range cards {
			cards[i].Content = cards[i].Excerpt()
			cards[i].Paragraphs = domain.Paragraphs(cards[i].Content)
		}
		html, err := s.render.Carousel(cards)
		if err != nil {
			return nil, err
		}
		return &ReviewListView{Reviews: cards, HTML: html}, nil
	})
}

// ProductSummary renders the star summary of a product.
func (s *ListingService) ProductSummary(ctx context.Context, productID, variationID string) (*SummaryView, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product_id is required")
	}
	params := map[string]string{"product_id": productID, "variation_id": variationID}

	return cachedView(ctx, s.fragments, FragmentProductSummary, params, s.ttl, func(ctx context.Context) (*SummaryView, error) {
		stats, err := s.stats.ProductStats(ctx, productID, variationID)
		if err != nil {
			return nil, err
		}
		html, err := s.render.ProductSummary(*stats)
		if err != nil {
			return nil, err
		}
		return &SummaryView{Stats: *stats, DisplayRating: stats.DisplayRating(), HTML: html}, nil
	})
}

// GlobalSummary renders the store-wide star summary.
func (s *ListingService) GlobalSummary(ctx context.Context) (*SummaryView, error) {
	return cachedView(ctx, s.fragments, FragmentGlobalSummary, nil, s.ttl, func(ctx context.Context) (*SummaryView, error) {
		stats, err := s.stats.GlobalStats(ctx)
		if err != nil {
			return nil, err
		}
		html, err := s.render.GlobalSummary(*stats)
		if err != nil {
			return nil, err
		}
		return &SummaryView{Stats: *stats, DisplayRating: stats.DisplayRating(), HTML: html}, nil
	})
}

func cardsOf(reviews []domain.Review) []domain.ReviewCard {
	cards := make([]domain.ReviewCard, len(reviews))
	for i, r := range reviews {
		cards[i] = domain.NewReviewCard(r)
	}
	return cards
}
