package journal

import (
	"context"
	"sync"
)

// Memory is an in-memory ring-buffer store. It backs tests, the
// walkthrough, and installations that don't need persistence; it also
// implements Recorder directly since appends cannot fail.
type Memory struct {
	mu     sync.RWMutex
	events []Event
	limit  int
}

// NewMemory creates a memory store keeping at most limit events
// (oldest evicted first). limit <= 0 defaults to 1000.
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = 1000
	}
	return &Memory{limit: limit}
}

// Append implements Store.
func (m *Memory) Append(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, ev)
	if len(m.events) > m.limit {
		m.events = m.events[len(m.events)-m.limit:]
	}
	return nil
}

// Record implements Recorder.
func (m *Memory) Record(ev Event) {
	_ = m.Append(context.Background(), ev)
}

// Recent implements Store.
func (m *Memory) Recent(_ context.Context, n int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 || n > len(m.events) {
		n = len(m.events)
	}
	out := make([]Event, n)
	for i := 0; i < n; i++ {
		out[i] = m.events[len(m.events)-1-i]
	}
	return out, nil
}

// Len returns the number of stored events.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
