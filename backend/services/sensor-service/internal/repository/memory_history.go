package repository

import (
	"context"
	"sync"

	"evsense/backend/services/sensor-service/internal/models"
)

// MemoryHistory is a bounded in-process history used when no database is configured.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
	max     int
	nextID  int64
}

// NewMemoryHistory keeps at most max entries, dropping the oldest.
func NewMemoryHistory(max int) *MemoryHistory {
	if max <= 0 {
		max = 1000
	}
	return &MemoryHistory{max: max}
}

// Append stores a copy of entry.
func (m *MemoryHistory) Append(_ context.Context, entry *models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	entry.ID = m.nextID
	m.entries = append(m.entries, *entry)
	if over := len(m.entries) - m.max; over > 0 {
		m.entries = append(m.entries[:0], m.entries[over:]...)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (m *MemoryHistory) Recent(_ context.Context, limit int) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.entries)
	if limit > n {
		limit = n
	}
	out := make([]models.HistoryEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}
