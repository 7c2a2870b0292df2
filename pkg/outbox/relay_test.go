package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asyncorders/asyncorders/pkg/logging"
)

type fakeStore struct {
	batch []Event

	sent   [][]int64
	failed []int64
}

func (f *fakeStore) LockBatch(context.Context, string, int, time.Duration) ([]Event, error) {
	events := f.batch
	f.batch = nil
	return events, nil
}

func (f *fakeStore) MarkSent(_ context.Context, ids []int64) error {
	f.sent = append(f.sent, ids)
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, id int64, _ string) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeProducer struct {
	err      error
	messages []kafka.Message
}

func (f *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func event(id int64) Event {
	return Event{
		ID:            id,
		AggregateType: "order",
		AggregateID:   "42",
		Type:          "OrderStatusChanged",
		Payload:       []byte(`{"orderId":42}`),
		Traceparent:   "00-abc-def-01",
		Status:        StatusPending,
	}
}

func TestRelay_DispatchesLockedBatchAndMarksSent(t *testing.T) {
	store := &fakeStore{batch: []Event{event(1), event(2)}}
	producer := &fakeProducer{}
	log := logging.New("test")
	relay := NewRelay(log, store, NewDispatcher(log, producer, "order-status-changed"), "relay-1")

	relay.tick(context.Background())

	require.Len(t, producer.messages, 2)
	assert.Equal(t, [][]int64{{1, 2}}, store.sent)
	assert.Empty(t, store.failed)

	msg := producer.messages[0]
	assert.Equal(t, "order-status-changed", msg.Topic)
	assert.Equal(t, []byte("42"), msg.Key)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "OrderStatusChanged", headers["event_type"])
	assert.Equal(t, "00-abc-def-01", headers["traceparent"])
}

func TestRelay_ProducerFailureMarksFailed(t *testing.T) {
	store := &fakeStore{batch: []Event{event(1)}}
	producer := &fakeProducer{err: errors.New("broker unreachable")}
	log := logging.New("test")
	relay := NewRelay(log, store, NewDispatcher(log, producer, "order-status-changed"), "relay-1")

	relay.tick(context.Background())

	assert.Empty(t, store.sent)
	assert.Equal(t, []int64{1}, store.failed)
}

func TestRelay_EmptyBatchPublishesNothing(t *testing.T) {
	store := &fakeStore{}
	producer := &fakeProducer{}
	log := logging.New("test")
	relay := NewRelay(log, store, NewDispatcher(log, producer, "order-status-changed"), "relay-1")

	relay.tick(context.Background())

	assert.Empty(t, producer.messages)
	assert.Empty(t, store.sent)
}

func TestRelay_RunStopsOnContextCancel(t *testing.T) {
	store := &fakeStore{}
	producer := &fakeProducer{}
	log := logging.New("test")
	relay := NewRelay(log, store, NewDispatcher(log, producer, "order-status-changed"), "relay-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, relay.Run(ctx))
}
