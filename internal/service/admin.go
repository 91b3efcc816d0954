package service

import (
	"context"
	"log/slog"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
	"github.com/gustavofullstack/udia-reviews-v2/internal/repository"
)

// DeletionObserver is notified inline after a review is removed.
type DeletionObserver interface {
	OnReviewDeleted(ctx context.Context, review *domain.Review) error
}

// AdminService holds the operator-only operations.
type AdminService struct {
	repo      repository.ReviewRepository
	stats     *StatsService
	fragments *FragmentCache
	security  *SecurityLog
	observers []DeletionObserver
	logger    *slog.Logger
}

func NewAdminService(repo repository.ReviewRepository, stats *StatsService, fragments *FragmentCache, security *SecurityLog, logger *slog.Logger) *AdminService {
	return &AdminService{repo: repo, stats: stats, fragments: fragments, security: security, logger: logger}
}

func (s *AdminService) AddObserver(o DeletionObserver) {
	s.observers = append(s.observers, o)
}

// DeleteReview removes a review and invalidates the same caches a new
// review would.
func (s *AdminService) DeleteReview(ctx context.Context, id string) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	invalidateCaches(ctx, s.stats, s.fragments, s.logger, review)

	for _, o := range s.observers {
		if err := o.OnReviewDeleted(ctx, review); err != nil {
			s.logger.ErrorContext(ctx, "deletion observer failed",
				slog.String("review_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "review deleted", slog.String("review_id", id))
	return nil
}

// SecurityEvents returns the newest suspicious-activity entries.
func (s *AdminService) SecurityEvents(ctx context.Context, n int) ([]domain.SecurityEvent, error) {
	return s.security.Recent(ctx, n)
}
