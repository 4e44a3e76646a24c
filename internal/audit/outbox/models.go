// Package outbox implements the transactional outbox pattern for the audit
// event pipeline: events are appended alongside business writes and a worker
// publishes them to Kafka.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one pending event in the outbox table.
type Entry struct {
	ID            uuid.UUID
	AggregateType string // "verification", "compliance"
	AggregateID   string
	EventType     string
	Payload       []byte // JSON-encoded audit.Event
	CreatedAt     time.Time
	ProcessedAt   *time.Time // nil = pending
}

// IsPending reports whether the entry still awaits publishing.
func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// NewEntry creates an outbox entry with a generated UUID.
func NewEntry(aggregateType, aggregateID, eventType string, payload []byte) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}
