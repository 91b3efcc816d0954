package domain

import (
	"time"
	"unicode/utf8"
)

// ReviewStatus is the publication state of a review.
type ReviewStatus string

const StatusPublished ReviewStatus = "published"

const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 5

	MinContentLength = 10
	MaxContentLength = 2000
)

// Review is one customer testimonial. Reviews are append-only.
type Review struct {
	ID           string       `json:"id"`
	AuthorID     string       `json:"author_id"`
	AuthorName   string       `json:"author_name"`
	Rating       int          `json:"rating"`
	Content      string       `json:"content"`
	ProductID    string       `json:"product_id,omitempty"`
	VariationID  string       `json:"variation_id,omitempty"`
	OrderItemID  string       `json:"order_item_id,omitempty"`
	ProductLabel string       `json:"product_label"`
	Status       ReviewStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ClampRating forces n into [MinRating, MaxRating].
func ClampRating(n int) int {
	switch {
	case n < MinRating:
		return MinRating
	case n > MaxRating:
		return MaxRating
	default:
		return n
	}
}

// ValidRating reports whether n is a selectable star value.
func ValidRating(n int) bool {
	return n >= MinRating && n <= MaxRating
}

// ContentLengthOK reports whether s has between min and max runes.
func ContentLengthOK(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

// ResolvedProduct is what a review ends up attached to: an order line
// (ProductID, VariationID, OrderItemID set) or a typed name (Label only).
type ResolvedProduct struct {
	ProductID   string `json:"product_id,omitempty"`
	VariationID string `json:"variation_id,omitempty"`
	OrderItemID string `json:"order_item_id,omitempty"`
	Label       string `json:"label"`
}

// OrderItem is one line of a customer's order, as listed for selection.
type OrderItem struct {
	ItemID      string `json:"item_id"`
	ProductID   string `json:"product_id"`
	VariationID string `json:"variation_id,omitempty"`
	Label       string `json:"label"`
}

// LastOrder is the most recent eligible order of a user.
type LastOrder struct {
	OrderID string      `json:"order_id"`
	Items   []OrderItem `json:"items"`
}

// Security event names.
const (
	EventHoneypot      = "honeypot_triggered"
	EventIPRateLimited = "ip_rate_limit_exceeded"
	EventSpamDetected  = "spam_detected"
)

// SecurityEvent is one suspicious-activity log entry.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Event     string            `json:"event"`
	IP        string            `json:"ip"`
	UserID    string            `json:"user_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}
