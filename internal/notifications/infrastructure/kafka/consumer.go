package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/notifications/application"
	"github.com/asyncorders/asyncorders/pkg/deadletter"
	"github.com/asyncorders/asyncorders/pkg/idempotency"
	"github.com/asyncorders/asyncorders/pkg/tracing"
)

// Consumer feeds terminal status changes to the notification dispatcher. It
// subscribes to the same canonical order-status-changed topic as
// orders-service, under its own consumer group.
type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	svc    *application.Service
	idem   *idempotency.Store
	dlq    *deadletter.Producer
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, group string, svc *application.Service, idem *idempotency.Store, dlq *deadletter.Producer) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   contracts.TopicOrderStatusChanged,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		svc:    svc,
		idem:   idem,
		dlq:    dlq,
		tracer: otel.Tracer("notifications-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			c.log.Error("idempotency check failed", "err", err)
			continue
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "ConsumeOrderStatusChanged")

		c.handle(msgCtx, msg)

		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var event contracts.OrderStatusChanged
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.Error("unmarshal order-status-changed failed", "err", err)
		if dlqErr := c.dlq.Send(ctx, msg, err.Error()); dlqErr != nil {
			c.log.Error("dead letter send failed", "err", dlqErr)
		}
		return
	}
	if err := event.Validate(); err != nil {
		c.log.Error("invalid order-status-changed event", "order_id", event.OrderID, "err", err)
		if dlqErr := c.dlq.Send(ctx, msg, err.Error()); dlqErr != nil {
			c.log.Error("dead letter send failed", "err", dlqErr)
		}
		return
	}

	c.log.Info("received order-status-changed event", "order_id", event.OrderID, "status", event.Status)

	if err := c.svc.HandleStatusChanged(ctx, event); err != nil {
		c.log.Error("notification handling failed", "order_id", event.OrderID, "err", err)
	}
}
