package journal

import (
	"context"
	"fmt"
	"testing"
)

func TestMemory_RecentNewestFirst(t *testing.T) {
	m := NewMemory(10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ev := New(KindMediaState, "shared-media", "", map[string]any{"n": i})
		if err := m.Append(ctx, ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	events, err := m.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Recent length: got %d", len(events))
	}
	// Newest first
	if events[0].Detail["n"] != 2 || events[2].Detail["n"] != 0 {
		t.Errorf("Order: got %v, %v, %v",
			events[0].Detail["n"], events[1].Detail["n"], events[2].Detail["n"])
	}
}

func TestMemory_RingEviction(t *testing.T) {
	m := NewMemory(2)
	for i := 0; i < 5; i++ {
		m.Record(New(KindZoneEngaged, "welcome-zone", fmt.Sprintf("ev-%d", i), nil))
	}
	if m.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", m.Len())
	}

	events, _ := m.Recent(context.Background(), 0)
	if events[0].Subject != "ev-4" || events[1].Subject != "ev-3" {
		t.Errorf("Kept wrong events: %s, %s", events[0].Subject, events[1].Subject)
	}
}

func TestMemory_RecentLimit(t *testing.T) {
	m := NewMemory(10)
	for i := 0; i < 5; i++ {
		m.Record(New(KindMediaState, "shared-media", "", nil))
	}
	events, _ := m.Recent(context.Background(), 2)
	if len(events) != 2 {
		t.Errorf("Recent(2): got %d events", len(events))
	}
}

func TestNew_StampsIDAndTime(t *testing.T) {
	ev := New(KindMediaSplit, "shared-media", "visitor-two", nil)
	if ev.ID == "" {
		t.Error("Missing ID")
	}
	if ev.At.IsZero() {
		t.Error("Missing timestamp")
	}
	other := New(KindMediaSplit, "shared-media", "visitor-two", nil)
	if ev.ID == other.ID {
		t.Error("IDs not unique")
	}
}

func TestMultiRecorder(t *testing.T) {
	a := NewMemory(10)
	b := NewMemory(10)
	rec := MultiRecorder(a, b)

	rec.Record(New(KindServiceStart, "", "", nil))
	if a.Len() != 1 || b.Len() != 1 {
		t.Errorf("Fan-out: a=%d b=%d", a.Len(), b.Len())
	}
}

func TestAsyncRecorder_DrainsOnShutdown(t *testing.T) {
	store := NewMemory(100)
	rec := NewAsyncRecorder(store, 16)

	ctx, cancel := context.WithCancel(context.Background())
	go rec.Run(ctx)

	for i := 0; i < 10; i++ {
		rec.Record(New(KindMediaState, "shared-media", "", nil))
	}

	cancel()
	rec.Wait()

	if store.Len() != 10 {
		t.Errorf("Stored events: got %d, want 10", store.Len())
	}
}

func TestAsyncRecorder_NeverBlocks(t *testing.T) {
	store := NewMemory(100)
	rec := NewAsyncRecorder(store, 2)
	// No Run goroutine: the buffer fills and Record must still return.
	for i := 0; i < 20; i++ {
		rec.Record(New(KindMediaState, "shared-media", "", nil))
	}
}
