package application

import (
	"context"
	"time"

	"github.com/asyncorders/asyncorders/internal/notifications/domain"
)

type NotificationRepository interface {
	Save(ctx context.Context, n domain.OrderNotification) (domain.OrderNotification, error)
	MarkSent(ctx context.Context, id int, at time.Time) error
}

// Sender is the outbound mail transport.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
