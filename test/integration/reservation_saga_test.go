package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asyncorders/asyncorders/internal/contracts"
	"github.com/asyncorders/asyncorders/internal/products/domain"
	productpg "github.com/asyncorders/asyncorders/internal/products/infrastructure/postgres"
	"github.com/asyncorders/asyncorders/pkg/logging"
	"github.com/asyncorders/asyncorders/pkg/outbox"
)

// TestReservationThroughOutbox covers the products side of the saga end to
// end: reserve stock in one transaction, then observe the terminal
// order-status-changed event arrive on the broker via the relay.
func TestReservationThroughOutbox(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, requires docker")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	require.NoError(t, err)
	defer env.Teardown(ctx)

	log := logging.New("integration-test")

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	defer pool.Close()

	repo := productpg.NewRepository(log, pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	store := outbox.NewPGStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	product, err := repo.CreateProduct(ctx, domain.Product{Name: gofakeit.ProductName(), Price: 250, NumInStock: 10, Mkt: gofakeit.UUID()})
	require.NoError(t, err)

	res, err := repo.ReserveWithOutbox(ctx, contracts.OrderCreated{
		OrderID:    1,
		TotalPrice: 500,
		Items:      []contracts.OrderItem{{ProductID: product.ID, Quantity: 2}},
	}, "")
	require.NoError(t, err)
	require.True(t, res.OK)

	got, err := repo.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.NumInStock)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(env.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()

	relay := outbox.NewRelay(log, store, outbox.NewDispatcher(log, writer, contracts.TopicOrderStatusChanged), "relay-test")
	go func() { _ = relay.Run(relayCtx) }()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     env.Brokers,
		Topic:       contracts.TopicOrderStatusChanged,
		GroupID:     "integration-test-group",
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	readCtx, cancelRead := context.WithTimeout(ctx, 60*time.Second)
	defer cancelRead()

	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err)

	var event contracts.OrderStatusChanged
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, 1, event.OrderID)
	assert.Equal(t, contracts.StatusConfirmed, event.Status)
	assert.Equal(t, "order validated and stock reserved", event.Message)
	assert.Equal(t, []byte("1"), msg.Key)
}

// TestRejectionLeavesStockUntouched covers the compensating outcome: an
// order that cannot be fully reserved decrements nothing and produces a
// REJECTED outbox row.
func TestRejectionLeavesStockUntouched(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, requires docker")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	require.NoError(t, err)
	defer env.Teardown(ctx)

	log := logging.New("integration-test")

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	defer pool.Close()

	repo := productpg.NewRepository(log, pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	store := outbox.NewPGStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	name := gofakeit.ProductName()
	product, err := repo.CreateProduct(ctx, domain.Product{Name: name, Price: 80, NumInStock: 5, Mkt: gofakeit.UUID()})
	require.NoError(t, err)

	res, err := repo.ReserveWithOutbox(ctx, contracts.OrderCreated{
		OrderID: 2,
		Items:   []contracts.OrderItem{{ProductID: product.ID, Quantity: 100}},
	}, "")
	require.NoError(t, err)
	require.False(t, res.OK)
	assert.Equal(t, "insufficient stock for product "+name+" (Available: 5, Requested: 100)", res.Message)

	got, err := repo.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.NumInStock)

	batch, err := store.LockBatch(ctx, "relay-test", 10, 5*time.Second)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	var event contracts.OrderStatusChanged
	require.NoError(t, json.Unmarshal(batch[0].Payload, &event))
	assert.Equal(t, contracts.StatusRejected, event.Status)
	assert.Equal(t, "2", batch[0].AggregateID)
}
