package store

import (
	"context"
	"sync"

	"aibetix/internal/audit"
)

// Memory is an in-memory Store for tests and local development.
type Memory struct {
	mu      sync.RWMutex
	records []audit.LocationVerification
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(_ context.Context, rec *audit.LocationVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *rec)
	return nil
}

// HistoryByUser returns the user's most recent records, newest first.
func (m *Memory) HistoryByUser(_ context.Context, userID string, limit int) ([]audit.LocationVerification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := []audit.LocationVerification{}
	for i := len(m.records) - 1; i >= 0 && len(history) < limit; i-- {
		if m.records[i].UserID == userID {
			history = append(history, m.records[i])
		}
	}
	return history, nil
}
