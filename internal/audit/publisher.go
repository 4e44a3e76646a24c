package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher fans audit events out to the event pipeline.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// LogPublisher writes audit events to the structured log. It backs the
// pipeline when no database is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	p.logger.InfoContext(ctx, "audit event",
		"action", event.Action,
		"user_id", event.UserID,
		"actor", event.Actor,
		"subject_id", event.SubjectID,
		"decision", event.Decision,
		"reason", event.Reason,
	)
	return nil
}
