package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/gustavofullstack/udia-reviews-v2/pkg/kafka"
)

// Order topics consumed from the order service.
const (
	TopicOrderCreated       = "ecommerce.order.created"
	TopicOrderStatusChanged = "ecommerce.order.status_changed"
	TopicOrderCanceled      = "ecommerce.order.canceled"
)

// ConsumerGroupID is the consumer group of the reviews service.
const ConsumerGroupID = "reviews-service"

// OrderTopics lists every topic OrderConsumer handles.
func OrderTopics() []string {
	return []string{TopicOrderCreated, TopicOrderStatusChanged, TopicOrderCanceled}
}

// orderEventData is the part of an order payload used here. Only
// order.created is guaranteed to carry user_id; the others may put it in
// the envelope metadata.
type orderEventData struct {
	UserID string `json:"user_id"`
}

// LastOrderForgetter drops a user's cached last-order list.
type LastOrderForgetter interface {
	ForgetLastOrder(ctx context.Context, userID string)
}

// OrderConsumer keeps the last-order cache fresh as orders change.
type OrderConsumer struct {
	cache  LastOrderForgetter
	logger *slog.Logger
}

func NewOrderConsumer(cache LastOrderForgetter, logger *slog.Logger) *OrderConsumer {
	return &OrderConsumer{cache: cache, logger: logger}
}

// Handle is a pkgkafka.Handler.
func (c *OrderConsumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicOrderCreated, TopicOrderStatusChanged, TopicOrderCanceled:
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	var data orderEventData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.EventType, err)
	}

	userID := data.UserID
	if userID == "" {
		userID = event.Metadata["user_id"]
	}
	if userID == "" {
		c.logger.DebugContext(ctx, "order event without user, skipping",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
		)
		return nil
	}

	c.cache.ForgetLastOrder(ctx, userID)
	c.logger.InfoContext(ctx, "last order cache cleared",
		slog.String("event_type", event.EventType),
		slog.String("order_id", event.AggregateID),
		slog.String("user_id", userID),
	)
	return nil
}
