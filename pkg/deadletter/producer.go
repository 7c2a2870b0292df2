// Package deadletter routes inbound messages that failed validation to a
// dedicated failure topic, preserving the original payload and recording the
// failure reason for later reprocessing.
package deadletter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type kafkaProducer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Producer struct {
	log    *slog.Logger
	writer kafkaProducer
	topic  string
}

func NewProducer(log *slog.Logger, writer kafkaProducer, topic string) *Producer {
	return &Producer{log: log, writer: writer, topic: topic}
}

// Send copies the original message to the dead-letter topic with headers
// naming the source topic and the failure reason.
func (p *Producer) Send(ctx context.Context, original kafka.Message, reason string) error {
	msg := kafka.Message{
		Topic: p.topic,
		Key:   original.Key,
		Value: original.Value,
		Headers: append(original.Headers,
			kafka.Header{Key: "source_topic", Value: []byte(original.Topic)},
			kafka.Header{Key: "reason", Value: []byte(reason)},
		),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write dead letter: %w", err)
	}
	p.log.Warn("message routed to dead letter topic",
		"source_topic", original.Topic, "key", string(original.Key), "reason", reason)
	return nil
}
