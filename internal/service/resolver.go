package service

import (
	"context"
	"log/slog"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
)

// OrderLookup finds the most recent eligible order of a user. It returns
// nil, nil when the user has none.
type OrderLookup interface {
	LastEligibleOrder(ctx context.Context, userID string) (*domain.LastOrder, error)
}

// LastOrderCache caches LastOrderProducts results per user.
type LastOrderCache interface {
	Get(ctx context.Context, userID string) (*domain.LastOrder, bool, error)
	Set(ctx context.Context, userID string, order *domain.LastOrder) error
	Delete(ctx context.Context, userID string) error
}

// Resolver ties a submission to a line of the user's last order, or to a
// typed product name.
type Resolver struct {
	orders OrderLookup
	cache  LastOrderCache
	logger *slog.Logger
}

func NewResolver(orders OrderLookup, cache LastOrderCache, logger *slog.Logger) *Resolver {
	return &Resolver{orders: orders, cache: cache, logger: logger}
}

// Resolve validates claimedOrderItemID against the user's last eligible
// order. Without a claimed item the trimmed manualProductName is used as
// the label. Lookup failures surface as NetworkOrTimeout.
func (r *Resolver) Resolve(ctx context.Context, userID, claimedOrderItemID, manualProductName string) (*domain.ResolvedProduct, error) {
	if claimedOrderItemID == "" {
		label := domain.SanitizeText(manualProductName)
		if label == "" {
			return nil, domain.ErrMissingProduct()
		}
		return &domain.ResolvedProduct{Label: label}, nil
	}

	order, err := r.orders.LastEligibleOrder(ctx, userID)
	if err != nil {
		r.logger.WarnContext(ctx, "order lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, domain.ErrNetwork(err)
	}
	if order == nil {
		return nil, domain.ErrInvalidOrderItem()
	}
	for _, item := range order.Items {
		if item.ItemID == claimedOrderItemID {
			return &domain.ResolvedProduct{
				ProductID:   item.ProductID,
				VariationID: item.VariationID,
				OrderItemID: item.ItemID,
				Label:       domain.SanitizeText(item.Label),
			}, nil
		}
	}
	return nil, domain.ErrInvalidOrderItem()
}

// LastOrderProducts lists the items of the user's last eligible order for
// the review form, served from a short per-user cache.
func (r *Resolver) LastOrderProducts(ctx context.Context, userID string) (*domain.LastOrder, error) {
	if userID == "" {
		return nil, domain.ErrAuthRequired()
	}

	cached, hit, err := r.cache.Get(ctx, userID)
	if err != nil {
		cacheErrorsTotal.WithLabelValues("last_order", "get").Inc()
		r.logger.WarnContext(ctx, "last order cache read failed", slog.String("error", err.Error()))
	}
	cacheResult("last_order", hit)
	if hit {
		return cached, nil
	}

	order, err := r.orders.LastEligibleOrder(ctx, userID)
	if err != nil {
		return nil, domain.ErrNetwork(err)
	}
	if order == nil {
		return nil, domain.ErrNoEligibleOrder()
	}
	if len(order.Items) == 0 {
		return nil, domain.ErrEmptyOrder()
	}

	if err := r.cache.Set(ctx, userID, order); err != nil {
		cacheErrorsTotal.WithLabelValues("last_order", "set").Inc()
		r.logger.WarnContext(ctx, "last order cache write failed", slog.String("error", err.Error()))
	}
	return order, nil
}

// ForgetLastOrder drops the cached order list of userID. Failures are
// logged only.
func (r *Resolver) ForgetLastOrder(ctx context.Context, userID string) {
	if err := r.cache.Delete(ctx, userID); err != nil {
		cacheErrorsTotal.WithLabelValues("last_order", "delete").Inc()
		r.logger.WarnContext(ctx, "last order cache delete failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
