package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
	pkgkafka "github.com/gustavofullstack/udia-reviews-v2/pkg/kafka"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/logger"
)

// Topics published by the reviews service.
var (
	TopicReviewCreated = pkgkafka.Topic(pkgkafka.TopicPrefix, "review", "created")
	TopicReviewDeleted = pkgkafka.Topic(pkgkafka.TopicPrefix, "review", "deleted")
)

const (
	AggregateTypeReview = "review"
	SourceReviewService = "reviews-service"
)

// ReviewCreatedData is the payload of reviews.review.created.
type ReviewCreatedData struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	Rating       int       `json:"rating"`
	ProductID    string    `json:"product_id,omitempty"`
	VariationID  string    `json:"variation_id,omitempty"`
	OrderItemID  string    `json:"order_item_id,omitempty"`
	ProductLabel string    `json:"product_label"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReviewDeletedData is the payload of reviews.review.deleted.
type ReviewDeletedData struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id,omitempty"`
	VariationID string `json:"variation_id,omitempty"`
}

// Publisher is the part of *pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes review events. It is registered as an observer on the
// submission and admin services.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// OnReviewPersisted publishes reviews.review.created.
func (p *Producer) OnReviewPersisted(ctx context.Context, r *domain.Review) error {
	data := ReviewCreatedData{
		ID:           r.ID,
		AuthorID:     r.AuthorID,
		AuthorName:   r.AuthorName,
		Rating:       r.Rating,
		ProductID:    r.ProductID,
		VariationID:  r.VariationID,
		OrderItemID:  r.OrderItemID,
		ProductLabel: r.ProductLabel,
		CreatedAt:    r.CreatedAt,
	}
	return p.publish(ctx, TopicReviewCreated, r.ID, data)
}

// OnReviewDeleted publishes reviews.review.deleted.
func (p *Producer) OnReviewDeleted(ctx context.Context, r *domain.Review) error {
	data := ReviewDeletedData{ID: r.ID, ProductID: r.ProductID, VariationID: r.VariationID}
	return p.publish(ctx, TopicReviewDeleted, r.ID, data)
}

func (p *Producer) publish(ctx context.Context, topic, reviewID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, reviewID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.InfoContext(ctx, "review event published",
		slog.String("topic", topic),
		slog.String("review_id", reviewID),
	)
	return nil
}
