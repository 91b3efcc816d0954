package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
	"github.com/gustavofullstack/udia-reviews-v2/internal/repository"
)

const spamPreviewRunes = 100

// ReviewObserver is notified inline after a review is stored. Errors are
// logged and never fail the submission.
type ReviewObserver interface {
	OnReviewPersisted(ctx context.Context, review *domain.Review) error
}

// SubmitInput is one review submission. Name and Rating are nil when the
// field was absent from the request.
type SubmitInput struct {
	UserID          string
	UserDisplayName string
	ClientIP        string

	Name          *string
	Rating        *int
	Content       string
	OrderItemID   string
	ManualProduct string
	Honeypot      string
}

// SubmitResult carries the stored review, ready to prepend to a list.
type SubmitResult struct {
	ReviewID string            `json:"review_id"`
	Card     domain.ReviewCard `json:"review"`
	HTML     string            `json:"html"`
}

// ContentBounds are the accepted content lengths, in runes.
type ContentBounds struct {
	Min int
	Max int
}

// SubmissionService runs the review submission pipeline.
type SubmissionService struct {
	repo      repository.ReviewRepository
	limiter   *RateLimiter
	resolver  *Resolver
	stats     *StatsService
	fragments *FragmentCache
	security  *SecurityLog
	render    Renderer
	bounds    ContentBounds
	observers []ReviewObserver
	logger    *slog.Logger
	now       func() time.Time
}

func NewSubmissionService(
	repo repository.ReviewRepository,
	limiter *RateLimiter,
	resolver *Resolver,
	stats *StatsService,
	fragments *FragmentCache,
	security *SecurityLog,
	render Renderer,
	bounds ContentBounds,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		repo:      repo,
		limiter:   limiter,
		resolver:  resolver,
		stats:     stats,
		fragments: fragments,
		security:  security,
		render:    render,
		bounds:    bounds,
		logger:    logger,
		now:       time.Now,
	}
}

// AddObserver registers o to be called after every stored review.
func (s *SubmissionService) AddObserver(o ReviewObserver) {
	s.observers = append(s.observers, o)
}

// WithClock replaces the time source used for created_at and the
// last-submission mark.
func (s *SubmissionService) WithClock(now func() time.Time) *SubmissionService {
	s.now = now
	return s
}

// Submit validates and stores a review. Gates run in order and the first
// failure ends the request; nothing is written before every gate passed.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	res, err := s.submit(ctx, in)
	outcome := "created"
	if err != nil {
		outcome = strings.ToLower(string(domain.KindOf(err)))
		if outcome == "" {
			outcome = "error"
		}
	}
	submissionsTotal.WithLabelValues(outcome).Inc()
	return res, err
}

func (s *SubmissionService) submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if in.Honeypot != "" {
		s.security.Record(ctx, domain.EventHoneypot, in.ClientIP, in.UserID,
			map[string]string{"value": domain.SanitizeText(in.Honeypot)})
		return nil, domain.ErrSpam(domain.MsgHoneypot)
	}

	if in.UserID == "" {
		return nil, domain.ErrAuthRequired()
	}

	if err := s.checkRateLimits(ctx, in); err != nil {
		return nil, err
	}

	content, err := s.validateContent(in)
	if err != nil {
		return nil, err
	}

	if domain.IsLikelySpam(content) {
		s.security.Record(ctx, domain.EventSpamDetected, in.ClientIP, in.UserID,
			map[string]string{"content_preview": domain.Preview(content, spamPreviewRunes)})
		return nil, domain.ErrSpam(domain.MsgSpamContent)
	}

	product, err := s.resolver.Resolve(ctx, in.UserID, in.OrderItemID, in.ManualProduct)
	if err != nil {
		return nil, err
	}

	rating := domain.DefaultRating
	if in.Rating != nil {
		rating = domain.ClampRating(*in.Rating)
	}

	now := s.now().UTC()
	review := &domain.Review{
		ID:           uuid.New().String(),
		AuthorID:     in.UserID,
		AuthorName:   s.displayName(in),
		Rating:       rating,
		Content:      content,
		ProductID:    product.ProductID,
		VariationID:  product.VariationID,
		OrderItemID:  product.OrderItemID,
		ProductLabel: product.Label,
		Status:       domain.StatusPublished,
		CreatedAt:    now,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist review",
			slog.String("user_id", in.UserID),
			slog.String("error", err.Error()),
		)
		return nil, domain.ErrPersistence(err)
	}

	if err := s.limiter.MarkSubmitted(ctx, in.UserID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record submission time",
			slog.String("user_id", in.UserID),
			slog.String("error", err.Error()),
		)
	}

	s.invalidate(ctx, review)
	s.resolver.ForgetLastOrder(ctx, in.UserID)
	s.notify(ctx, review)

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("user_id", review.AuthorID),
		slog.String("product_id", review.ProductID),
		slog.Int("rating", review.Rating),
	)

	card := domain.NewReviewCard(*review)
	html, err := s.render.Card(card)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to render review card",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}
	return &SubmitResult{ReviewID: review.ID, Card: card, HTML: html}, nil
}

// checkRateLimits applies the per-IP counter, then the per-user interval.
// A counter store failure lets the request through.
func (s *SubmissionService) checkRateLimits(ctx context.Context, in SubmitInput) error {
	p := s.limiter.Policy()

	ok, err := s.limiter.CheckAndConsume(ctx, in.ClientIP, p.Action, p.MaxAttempts, p.Window)
	if err != nil {
		s.logger.WarnContext(ctx, "ip rate limit unavailable, allowing", slog.String("error", err.Error()))
	} else if !ok {
		s.security.Record(ctx, domain.EventIPRateLimited, in.ClientIP, in.UserID, nil)
		return domain.ErrRateLimited(domain.MsgIPRateLimited)
	}

	ok, retryAfter, err := s.limiter.CheckInterval(ctx, in.UserID, p.Interval)
	if err != nil {
		s.logger.WarnContext(ctx, "submission interval unavailable, allowing", slog.String("error", err.Error()))
		return nil
	}
	if !ok {
		s.logger.InfoContext(ctx, "submission interval not elapsed",
			slog.String("user_id", in.UserID),
			slog.Duration("retry_after", retryAfter),
		)
		return domain.ErrRateLimited(domain.MsgTooFast)
	}
	return nil
}

func (s *SubmissionService) validateContent(in SubmitInput) (string, error) {
	content := domain.SanitizeText(in.Content)
	if content == "" {
		return "", domain.ErrValidation(domain.MsgEmptyContent)
	}
	if !domain.ContentLengthOK(content, s.bounds.Min, s.bounds.Max) {
		msg := domain.ContentLengthMessage(s.bounds.Min, s.bounds.Max)
		if in.Rating != nil && !domain.ValidRating(*in.Rating) {
			msg = domain.MsgSelectRating + " " + msg
		}
		return "", domain.ErrValidation(msg)
	}
	return content, nil
}

func (s *SubmissionService) displayName(in SubmitInput) string {
	if in.Name != nil {
		if name := domain.CleanDisplayName(*in.Name); name != "" {
			return name
		}
	}
	return domain.CleanDisplayName(in.UserDisplayName)
}

// invalidate drops every cache a new or removed review makes stale. It runs
// before the response so the next read sees the change.
func (s *SubmissionService) invalidate(ctx context.Context, review *domain.Review) {
	invalidateCaches(ctx, s.stats, s.fragments, s.logger, review)
}

func (s *SubmissionService) notify(ctx context.Context, review *domain.Review) {
	for _, o := range s.observers {
		if err := o.OnReviewPersisted(ctx, review); err != nil {
			s.logger.ErrorContext(ctx, "review observer failed",
				slog.String("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func invalidateCaches(ctx context.Context, stats *StatsService, fragments *FragmentCache, logger *slog.Logger, review *domain.Review) {
	if err := stats.Invalidate(ctx, review.ProductID, review.VariationID); err != nil {
		logger.ErrorContext(ctx, "failed to invalidate stats cache",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := fragments.InvalidateAll(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to invalidate fragment cache",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}
}
