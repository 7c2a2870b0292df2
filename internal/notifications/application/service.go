package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/notifications/domain"
)

type Service struct {
	log    *slog.Logger
	repo   NotificationRepository
	sender Sender
	now    func() time.Time
}

func NewService(log *slog.Logger, repo NotificationRepository, sender Sender) *Service {
	return &Service{log: log, repo: repo, sender: sender, now: time.Now}
}

// HandleStatusChanged turns a terminal status change into at most one email.
// Non-terminal statuses and events without a contact email are skipped
// without error. The notification row is persisted before the send attempt;
// a transport failure leaves it unsent and is not retried here.
func (s *Service) HandleStatusChanged(ctx context.Context, event contracts.OrderStatusChanged) error {
	s.log.Info("processing notification", "order_id", event.OrderID, "status", event.Status)

	if !event.Status.IsTerminal() {
		s.log.Info("skipping notification, status is not final", "order_id", event.OrderID, "status", event.Status)
		return nil
	}
	if strings.TrimSpace(event.CustomerEmail) == "" {
		s.log.Warn("skipping notification, no email provided", "order_id", event.OrderID)
		return nil
	}

	notification, err := domain.BuildEmail(event, s.now())
	if err != nil {
		return fmt.Errorf("build notification: %w", err)
	}

	saved, err := s.repo.Save(ctx, notification)
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	s.log.Info("notification saved", "notification_id", saved.ID, "order_id", saved.OrderID)

	if err := s.sender.Send(ctx, saved.Contact.Email, saved.Message.Subject, saved.Message.Content); err != nil {
		s.log.Error("failed to send notification", "notification_id", saved.ID, "order_id", saved.OrderID, "err", err)
		return nil
	}

	if err := s.repo.MarkSent(ctx, saved.ID, s.now()); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}

	s.log.Info("notification sent", "notification_id", saved.ID, "order_id", saved.OrderID)
	return nil
}
