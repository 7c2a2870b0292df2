package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/pkg/tracing"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// StatusPublisher writes order-status-changed events straight to the broker.
// The regular path goes through the outbox; this publisher exists for the
// fault fallback, where no transaction survived to carry an outbox row.
type StatusPublisher struct {
	log    *slog.Logger
	writer writer
}

func NewStatusPublisher(log *slog.Logger, w writer) *StatusPublisher {
	return &StatusPublisher{log: log, writer: w}
}

func (p *StatusPublisher) PublishStatusChanged(ctx context.Context, event contracts.OrderStatusChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	msg := kafka.Message{
		Topic:   contracts.TopicOrderStatusChanged,
		Key:     event.Key(),
		Value:   payload,
		Headers: tracing.InjectKafkaHeaders(ctx, []kafka.Header{{Key: "event_type", Value: []byte("OrderStatusChanged")}}),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish status event: %w", err)
	}

	p.log.Info("order-status-changed published directly", "order_id", event.OrderID, "status", event.Status)
	return nil
}
