package journal

import (
	"context"
	"log/slog"
	"time"
)

const appendTimeout = 5 * time.Second

// AsyncRecorder decouples the tick loop from store latency: Record
// queues the event on a buffered channel and a background goroutine
// appends to the store. When the buffer is full the oldest queued
// event is dropped rather than stalling a tick.
type AsyncRecorder struct {
	store  Store
	events chan Event
	done   chan struct{}
	log    *slog.Logger
}

// NewAsyncRecorder wraps store. buffer <= 0 defaults to 256.
func NewAsyncRecorder(store Store, buffer int) *AsyncRecorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &AsyncRecorder{
		store:  store,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
		log:    slog.Default().With("component", "journal"),
	}
}

// Record implements Recorder. Never blocks.
func (r *AsyncRecorder) Record(ev Event) {
	for {
		select {
		case r.events <- ev:
			return
		default:
		}
		// Buffer full: shed the oldest queued event and retry.
		select {
		case old := <-r.events:
			r.log.Warn("journal buffer full, dropping event", "kind", old.Kind, "behavior", old.Behavior)
		default:
		}
	}
}

// Run appends queued events until ctx is cancelled, then drains the
// buffer before returning.
func (r *AsyncRecorder) Run(ctx context.Context) error {
	defer close(r.done)

	for {
		select {
		case ev := <-r.events:
			r.append(ev)
		case <-ctx.Done():
			r.drain()
			return ctx.Err()
		}
	}
}

// Wait blocks until Run has returned.
func (r *AsyncRecorder) Wait() {
	<-r.done
}

func (r *AsyncRecorder) drain() {
	for {
		select {
		case ev := <-r.events:
			r.append(ev)
		default:
			return
		}
	}
}

func (r *AsyncRecorder) append(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()

	if err := r.store.Append(ctx, ev); err != nil {
		r.log.Error("failed to append event", "kind", ev.Kind, "error", err)
	}
}
