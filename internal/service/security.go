package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
)

// SecurityLogStore keeps the recent suspicious-activity entries.
// Implemented by redis.SecurityLog.
type SecurityLogStore interface {
	Append(ctx context.Context, entry domain.SecurityEvent) error
	Recent(ctx context.Context, n int) ([]domain.SecurityEvent, error)
}

// SecurityLog records suspicious activity to the store and the log.
type SecurityLog struct {
	store  SecurityLogStore
	logger *slog.Logger
	now    func() time.Time
}

func NewSecurityLog(store SecurityLogStore, logger *slog.Logger) *SecurityLog {
	return &SecurityLog{store: store, logger: logger, now: time.Now}
}

func (l *SecurityLog) WithClock(now func() time.Time) *SecurityLog {
	l.now = now
	return l
}

// Record never fails the caller; a store error is only logged.
func (l *SecurityLog) Record(ctx context.Context, event, ip, userID string, details map[string]string) {
	securityEventsTotal.WithLabelValues(event).Inc()

	attrs := []any{
		slog.String("event", event),
		slog.String("ip", ip),
		slog.String("user_id", userID),
	}
	for k, v := range details {
		attrs = append(attrs, slog.String(k, v))
	}
	l.logger.WarnContext(ctx, "suspicious activity", attrs...)

	entry := domain.SecurityEvent{
		Timestamp: l.now().UTC(),
		Event:     event,
		IP:        ip,
		UserID:    userID,
		Details:   details,
	}
	if err := l.store.Append(ctx, entry); err != nil {
		l.logger.ErrorContext(ctx, "failed to store security event",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// Recent returns up to n entries, newest first.
func (l *SecurityLog) Recent(ctx context.Context, n int) ([]domain.SecurityEvent, error) {
	return l.store.Recent(ctx, n)
}
