package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/notifications/application"
	notifkafka "github.com/asyncorders/asyncorders/internal/notifications/infrastructure/kafka"
	"github.com/asyncorders/asyncorders/internal/notifications/infrastructure/mail"
	notifpg "github.com/asyncorders/asyncorders/internal/notifications/infrastructure/postgres"
	"github.com/asyncorders/asyncorders/pkg/config"
	"github.com/asyncorders/asyncorders/pkg/deadletter"
	"github.com/asyncorders/asyncorders/pkg/idempotency"
	"github.com/asyncorders/asyncorders/pkg/logging"
	"github.com/asyncorders/asyncorders/pkg/shutdown"
	"github.com/asyncorders/asyncorders/pkg/tracing"
)

const serviceName = "notifications-service"

type notificationsConfig struct {
	config.Common
	SMTP config.SMTP
}

func main() {
	log := logging.New(serviceName)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	var cfg notificationsConfig
	if err := config.Load(&cfg); err != nil {
		fatal(log, "config load failed", err)
	}

	tp, err := tracing.Init(ctx, serviceName, cfg.OTLPEndpoint, log)
	if err != nil {
		fatal(log, "otel init failed", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		fatal(log, "pg connect failed", err)
	}
	defer pool.Close()

	repo := notifpg.NewRepository(log, pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		fatal(log, "notifications schema failed", err)
	}

	sender, err := mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	if err != nil {
		fatal(log, "smtp sender init failed", err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
	defer writer.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	idem := idempotency.NewStore(rdb, 10*time.Minute)
	dlq := deadletter.NewProducer(log, writer, contracts.TopicDeadLetter)

	svc := application.NewService(log, repo, sender)

	consumer := notifkafka.NewConsumer(log, cfg.KafkaBrokers, serviceName+"-group", svc, idem, dlq)
	go func() {
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("consumer stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("notifications-service shutdown complete")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}
