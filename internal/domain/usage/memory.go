package usage

import (
	"context"
	"sync"
	"time"
)

// MemLedger keeps the usage log in memory. Used in tests and in
// single-process deployments that run without Postgres.
type MemLedger struct {
	mu   sync.Mutex
	rows []Record
	now  func() time.Time
}

func NewMemLedger() *MemLedger {
	return &MemLedger{now: time.Now}
}

// SetClock replaces the time source; test hook.
func (m *MemLedger) SetClock(now func() time.Time) { m.now = now }

func (m *MemLedger) Record(_ context.Context, subjectID int64, operation string, units float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, Record{
		ID:         int64(len(m.rows) + 1),
		SubjectID:  subjectID,
		Operation:  operation,
		Units:      units,
		OccurredAt: m.now(),
	})
	return nil
}

func (m *MemLedger) ConsumedInWindow(_ context.Context, subjectID int64, operation string, window time.Duration) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-window)
	var total float64
	for _, rec := range m.rows {
		if rec.SubjectID != subjectID || rec.Operation != operation {
			continue
		}
		// Boundary inclusive: a row exactly at now-window still counts.
		if rec.OccurredAt.Before(cutoff) {
			continue
		}
		total += rec.Units
	}
	return total, nil
}
