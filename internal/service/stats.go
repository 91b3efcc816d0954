package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
	"github.com/gustavofullstack/udia-reviews-v2/internal/repository"
)

// StatsCache stores computed snapshots. Implemented by redis.StatsCache.
type StatsCache interface {
	Get(ctx context.Context, productID, variationID string) (*domain.Stats, bool, error)
	Set(ctx context.Context, productID, variationID string, stats *domain.Stats) error
	GetGlobal(ctx context.Context) (*domain.Stats, bool, error)
	SetGlobal(ctx context.Context, stats *domain.Stats) error
	Invalidate(ctx context.Context, productID, variationID string) error
}

// StatsService aggregates ratings with a read-through cache. The cache is
// never a source of truth: any cache failure falls back to the store.
type StatsService struct {
	repo   repository.ReviewRepository
	cache  StatsCache
	logger *slog.Logger
}

func NewStatsService(repo repository.ReviewRepository, cache StatsCache, logger *slog.Logger) *StatsService {
	return &StatsService{repo: repo, cache: cache, logger: logger}
}

// ProductStats aggregates reviews referencing productID or variationID.
// Zero reviews give an average of 0.
func (s *StatsService) ProductStats(ctx context.Context, productID, variationID string) (*domain.Stats, error) {
	cached, hit, err := s.cache.Get(ctx, productID, variationID)
	s.observeGet(ctx, "product", hit, err)
	if hit {
		return cached, nil
	}

	ratings, err := s.repo.ListRatings(ctx, repository.ForProduct(productID, variationID, repository.Unbounded))
	if err != nil {
		return nil, fmt.Errorf("list product ratings: %w", err)
	}
	stats := domain.Aggregate(ratings, domain.ProductZeroAverage)
	stats.ProductID, stats.VariationID = productID, variationID

	if err := s.cache.Set(ctx, productID, variationID, &stats); err != nil {
		s.cacheWriteFailed(ctx, err)
	}
	return &stats, nil
}

// GlobalStats aggregates every published review. Zero reviews give 5.0.
func (s *StatsService) GlobalStats(ctx context.Context) (*domain.Stats, error) {
	cached, hit, err := s.cache.GetGlobal(ctx)
	s.observeGet(ctx, "global", hit, err)
	if hit {
		return cached, nil
	}

	ratings, err := s.repo.ListRatings(ctx, repository.ReviewFilter{Mode: repository.FilterGlobal, Limit: repository.Unbounded})
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	stats := domain.Aggregate(ratings, domain.GlobalZeroAverage)

	if err := s.cache.SetGlobal(ctx, &stats); err != nil {
		s.cacheWriteFailed(ctx, err)
	}
	return &stats, nil
}

// Invalidate drops the cached snapshots a new or deleted review of
// (productID, variationID) makes stale.
func (s *StatsService) Invalidate(ctx context.Context, productID, variationID string) error {
	if err := s.cache.Invalidate(ctx, productID, variationID); err != nil {
		cacheErrorsTotal.WithLabelValues("stats", "invalidate").Inc()
		return fmt.Errorf("invalidate stats: %w", err)
	}
	return nil
}

func (s *StatsService) observeGet(ctx context.Context, scope string, hit bool, err error) {
	if err != nil {
		cacheErrorsTotal.WithLabelValues("stats", "get").Inc()
		s.logger.WarnContext(ctx, "stats cache read failed",
			slog.String("scope", scope),
			slog.String("error", err.Error()),
		)
	}
	cacheResult("stats", hit)
}

func (s *StatsService) cacheWriteFailed(ctx context.Context, err error) {
	cacheErrorsTotal.WithLabelValues("stats", "set").Inc()
	s.logger.WarnContext(ctx, "stats cache write failed", slog.String("error", err.Error()))
}
