package seen

import (
	"context"
	"sync"
	"time"
)

// MemoryTracker keeps marks in process memory.
type MemoryTracker struct {
	mu    sync.RWMutex
	marks map[string]time.Time
}

// NewMemoryTracker returns an empty tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{marks: map[string]time.Time{}}
}

func (m *MemoryTracker) HasSeen(ctx context.Context, iid string) (bool, error) {
	m.mu.RLock()
	_, ok := m.marks[iid]
	m.mu.RUnlock()
	return ok, nil
}

func (m *MemoryTracker) MarkSeen(ctx context.Context, iid string, at time.Time) error {
	m.mu.Lock()
	m.marks[iid] = at
	m.mu.Unlock()
	return nil
}

func (m *MemoryTracker) EvictOlderThan(ctx context.Context, cutoff time.Time) error {
	m.mu.Lock()
	for iid, at := range m.marks {
		if at.Before(cutoff) {
			delete(m.marks, iid)
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryTracker) Len(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.marks), nil
}

// Touch is a no-op; memory entries only leave through EvictOlderThan.
func (m *MemoryTracker) Touch(ctx context.Context) error { return nil }

func (m *MemoryTracker) Close() error { return nil }

var _ Tracker = (*MemoryTracker)(nil)
