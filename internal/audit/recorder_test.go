package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aibetix/internal/geo"
)

type flakyStore struct {
	mu       sync.Mutex
	failures int
	records  []LocationVerification
}

func (s *flakyStore) Record(_ context.Context, rec *LocationVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("store unavailable")
	}
	s.records = append(s.records, *rec)
	return nil
}

func (s *flakyStore) HistoryByUser(_ context.Context, userID string, limit int) ([]LocationVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LocationVerification
	for _, rec := range s.records {
		if rec.UserID == userID && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *flakyStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRecorder_WritesRecord(t *testing.T) {
	store := &flakyStore{}
	rec := NewRecorder(store, testLogger())

	rec.Record(context.Background(), "user-1", "8.8.8.8", LocationVerification{
		IsAllowed: true,
		Region:    "US",
		GPS:       &geo.Coordinates{Latitude: 37.4, Longitude: -122.08},
	})
	rec.Close()

	require.Equal(t, 1, store.count())
	written := store.records[0]
	assert.NotEmpty(t, written.ID)
	assert.Equal(t, "user-1", written.UserID)
	assert.Equal(t, "8.8.8.8", written.IPAddress)
	assert.True(t, written.IsAllowed)
	assert.False(t, written.CreatedAt.IsZero())
}

func TestRecorder_RetriesTransientFailure(t *testing.T) {
	store := &flakyStore{failures: 2}
	rec := NewRecorder(store, testLogger(), WithRetry(3, time.Millisecond))

	rec.Record(context.Background(), "user-1", "8.8.8.8", LocationVerification{IsAllowed: false, Region: "FR"})
	rec.Close()

	assert.Equal(t, 1, store.count())
}

func TestRecorder_GivesUpAfterRetries(t *testing.T) {
	store := &flakyStore{failures: 10}
	rec := NewRecorder(store, testLogger(), WithRetry(2, time.Millisecond))

	rec.Record(context.Background(), "user-1", "8.8.8.8", LocationVerification{IsAllowed: false})
	rec.Close()

	assert.Zero(t, store.count())
}

func TestRecorder_NeverBlocksWhenFull(t *testing.T) {
	store := &flakyStore{failures: 1 << 30}
	rec := NewRecorder(store, testLogger(), WithBuffer(1), WithRetry(0, 0))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			rec.Record(context.Background(), "user-1", "8.8.8.8", LocationVerification{})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full buffer")
	}
	rec.Close()
}

func TestRecorder_History(t *testing.T) {
	store := &flakyStore{}
	rec := NewRecorder(store, testLogger())

	for i := 0; i < 3; i++ {
		rec.Record(context.Background(), "user-1", "8.8.8.8", LocationVerification{IsAllowed: true})
	}
	rec.Close()

	history, err := rec.History(context.Background(), "user-1", 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
