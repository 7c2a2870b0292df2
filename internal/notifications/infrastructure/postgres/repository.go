package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asyncorders/asyncorders/internal/notifications/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS order_notifications (
			id           SERIAL PRIMARY KEY,
			order_id     INT NOT NULL,
			msg_type     TEXT NOT NULL,
			email        TEXT,
			phone        TEXT,
			subject      TEXT NOT NULL,
			content      TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			order_status TEXT NOT NULL,
			is_sent      BOOLEAN NOT NULL DEFAULT FALSE,
			sent_at      TIMESTAMPTZ
		)`)
	if err != nil {
		return fmt.Errorf("create order_notifications table: %w", err)
	}
	return nil
}

func (r *Repository) Save(ctx context.Context, n domain.OrderNotification) (domain.OrderNotification, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO order_notifications
			(order_id, msg_type, email, phone, subject, content, created_at, order_status, is_sent)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id`,
		n.OrderID, n.MsgType, n.Contact.Email, n.Contact.Phone,
		n.Message.Subject, n.Message.Content, n.CreatedAt, n.OrderStatus, n.IsSent).
		Scan(&n.ID)
	if err != nil {
		return domain.OrderNotification{}, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

func (r *Repository) MarkSent(ctx context.Context, id int, at time.Time) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE order_notifications SET is_sent=TRUE, sent_at=$2 WHERE id=$1`, id, at)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("notification %d not found", id)
	}
	return nil
}
