package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/products/application"
	producthttp "github.com/asyncorders/asyncorders/internal/products/infrastructure/http"
	productkafka "github.com/asyncorders/asyncorders/internal/products/infrastructure/kafka"
	productpg "github.com/asyncorders/asyncorders/internal/products/infrastructure/postgres"
	"github.com/asyncorders/asyncorders/pkg/config"
	"github.com/asyncorders/asyncorders/pkg/deadletter"
	"github.com/asyncorders/asyncorders/pkg/idempotency"
	"github.com/asyncorders/asyncorders/pkg/logging"
	"github.com/asyncorders/asyncorders/pkg/outbox"
	"github.com/asyncorders/asyncorders/pkg/shutdown"
	"github.com/asyncorders/asyncorders/pkg/tracing"
)

const serviceName = "products-service"

func main() {
	log := logging.New(serviceName)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	var cfg config.Common
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

	repo := productpg.NewRepository(log, pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		fatal(log, "products schema failed", err)
	}
	store := outbox.NewPGStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		fatal(log, "outbox schema failed", err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
	defer writer.Close()

	dispatch := outbox.NewDispatcher(log, writer, contracts.TopicOrderStatusChanged)
	relay := outbox.NewRelay(log, store, dispatch, serviceName+"-relay")
	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("outbox relay stopped", "err", err)
		}
	}()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	idem := idempotency.NewStore(rdb, 10*time.Minute)
	dlq := deadletter.NewProducer(log, writer, contracts.TopicDeadLetter)
	fallback := productkafka.NewStatusPublisher(log, writer)

	svc := application.NewService(log, repo, fallback)

	consumer := productkafka.NewConsumer(log, cfg.KafkaBrokers, serviceName+"-group", svc, idem, dlq)
	go func() {
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("consumer stopped", "err", err)
			cancel()
		}
	}()

	handler := producthttp.NewHandler(log, svc)
	r := chi.NewRouter()
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	log.Info("products-service shutdown complete")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}
