// Package outbox implements the transactional outbox: a state change and the
// event it causes are committed in one local transaction, and a relay forwards
// committed rows to the broker afterwards. An event is therefore published
// only if its transaction committed, and is retried until publishing succeeds.
package outbox

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Traceparent   string
	CreatedAt     time.Time
	Status        Status
	RetryCount    int
	LastError     *string
}
