package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aibetix/internal/audit"
)

// Publisher implements audit.Publisher by appending events to the outbox,
// from where the worker delivers them to Kafka.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	aggregateType := "compliance"
	aggregateID := event.UserID
	if event.SubjectID != "" {
		aggregateType = "verification"
		aggregateID = event.SubjectID
	}

	entry := NewEntry(aggregateType, aggregateID, event.Action, payload)
	if err := p.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
