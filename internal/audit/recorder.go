package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"aibetix/internal/platform/metrics"
)

// RecordStore is the persistence sink for location verification records.
type RecordStore interface {
	Record(ctx context.Context, rec *LocationVerification) error
	HistoryByUser(ctx context.Context, userID string, limit int) ([]LocationVerification, error)
}

// Recorder writes location verification records off the request path. Records
// are queued on a buffered channel and persisted by a background worker with
// bounded retries, so an audit outage never delays or fails a compliance
// decision.
type Recorder struct {
	store      RecordStore
	queue      chan LocationVerification
	wg         sync.WaitGroup
	logger     *slog.Logger
	metrics    *metrics.Metrics
	maxRetries int
	retryDelay time.Duration
}

type RecorderOption func(*Recorder)

func WithBuffer(size int) RecorderOption {
	return func(r *Recorder) {
		if size > 0 {
			r.queue = make(chan LocationVerification, size)
		}
	}
}

func WithRetry(attempts int, delay time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.maxRetries = attempts
		r.retryDelay = delay
	}
}

func WithRecorderMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

func NewRecorder(store RecordStore, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:      store,
		queue:      make(chan LocationVerification, 256),
		logger:     logger,
		maxRetries: 3,
		retryDelay: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.wg.Add(1)
	go r.drain()
	return r
}

// Record enqueues one location verification record. It never blocks: if the
// buffer is full the record is dropped and counted as a write failure.
func (r *Recorder) Record(_ context.Context, userID, ipAddress string, rec LocationVerification) {
	rec.ID = uuid.New().String()
	rec.UserID = userID
	rec.IPAddress = ipAddress
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	select {
	case r.queue <- rec:
	default:
		if r.metrics != nil {
			r.metrics.AuditWriteFailures.Inc()
		}
		r.logger.Warn("audit buffer full, location record dropped", "user_id", userID)
	}
}

// History returns the user's most recent location verification records.
func (r *Recorder) History(ctx context.Context, userID string, limit int) ([]LocationVerification, error) {
	return r.store.HistoryByUser(ctx, userID, limit)
}

func (r *Recorder) drain() {
	defer r.wg.Done()
	for rec := range r.queue {
		r.persist(rec)
	}
}

func (r *Recorder) persist(rec LocationVerification) {
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(r.retryDelay * time.Duration(attempt))
			if r.metrics != nil {
				r.metrics.AuditRetries.Inc()
			}
		}
		if err = r.store.Record(context.Background(), &rec); err == nil {
			if r.metrics != nil {
				r.metrics.AuditRecordsWritten.Inc()
			}
			return
		}
	}
	if r.metrics != nil {
		r.metrics.AuditWriteFailures.Inc()
	}
	r.logger.Error("failed to persist location record",
		"error", err,
		"user_id", rec.UserID,
		"region", rec.Region,
	)
}

// Close stops the worker after the queue drains.
func (r *Recorder) Close() {
	close(r.queue)
	r.wg.Wait()
}
