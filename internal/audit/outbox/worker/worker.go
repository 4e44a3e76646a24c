// Package worker polls the outbox table and publishes pending audit events
// to Kafka.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"aibetix/internal/audit/outbox"
	"aibetix/internal/platform/kafka/producer"
	"aibetix/internal/platform/metrics"
)

type Worker struct {
	store        outbox.Store
	producer     producer.Publisher
	topic        string
	batchSize    int
	pollInterval time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Worker)

func WithTopic(topic string) Option {
	return func(w *Worker) {
		w.topic = topic
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		w.batchSize = size
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		w.pollInterval = interval
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func New(store outbox.Store, prod producer.Publisher, logger *slog.Logger, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		store:        store,
		producer:     prod,
		topic:        "aibetix.audit.events",
		batchSize:    100,
		pollInterval: 100 * time.Millisecond,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the polling loop in a background goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.drainRemaining()
			return
		case <-ticker.C:
			w.poll(w.ctx)
		}
	}
}

func (w *Worker) poll(ctx context.Context) {
	entries, err := w.store.FetchUnprocessed(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to fetch outbox entries", "error", err)
		return
	}

	for _, entry := range entries {
		if err := w.publish(ctx, entry); err != nil {
			w.logger.Error("failed to publish outbox entry",
				"id", entry.ID,
				"event_type", entry.EventType,
				"error", err,
			)
			if w.metrics != nil {
				w.metrics.OutboxFailures.Inc()
			}
			// retried on the next poll
			continue
		}

		if err := w.store.MarkProcessed(ctx, entry.ID, time.Now().UTC()); err != nil {
			// published but not marked; the idempotent consumer absorbs the
			// duplicate delivery
			w.logger.Error("failed to mark entry processed", "id", entry.ID, "error", err)
			continue
		}

		if w.metrics != nil {
			w.metrics.OutboxPublished.Inc()
		}
	}

	if w.metrics != nil {
		if pending, err := w.store.CountPending(ctx); err == nil {
			w.metrics.OutboxPendingDepth.Set(float64(pending))
		}
	}
}

func (w *Worker) publish(ctx context.Context, entry *outbox.Entry) error {
	return w.producer.Produce(ctx, &producer.Message{
		Topic: w.topic,
		Key:   []byte(entry.ID.String()),
		Value: entry.Payload,
		Headers: map[string]string{
			"aggregate_type": entry.AggregateType,
			"aggregate_id":   entry.AggregateID,
			"event_type":     entry.EventType,
		},
	})
}

// drainRemaining publishes what it can during shutdown.
func (w *Worker) drainRemaining() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	w.logger.Info("draining outbox worker")
	w.poll(ctx)
}

// Stop cancels the polling loop and waits for the final drain.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
