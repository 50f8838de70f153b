// Package hub fans JSON frames out to websocket subscribers using the
// channel-based broadcast pattern. The dashboard runs one hub per
// stream: scene snapshots and journal events.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub owns one named stream and the subscribers attached to it.
type Hub struct {
	stream string
	log    *slog.Logger

	subscribers map[*Subscriber]struct{}

	frames      chan []byte
	subscribe   chan *Subscriber
	unsubscribe chan *Subscriber

	// mu guards subscribers for SubscriberCount and shutdown; the run
	// loop is the only writer during normal operation.
	mu sync.Mutex
}

// New creates a hub for the named stream.
func New(stream string) *Hub {
	return &Hub{
		stream:      stream,
		log:         slog.Default().With("component", "hub", "stream", stream),
		subscribers: make(map[*Subscriber]struct{}),
		frames:      make(chan []byte, 256),
		subscribe:   make(chan *Subscriber),
		unsubscribe: make(chan *Subscriber),
	}
}

// Run drives the fan-out loop until ctx is cancelled, then closes every
// subscriber. Call it in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for sub := range h.subscribers {
				close(sub.send)
				delete(h.subscribers, sub)
			}
			h.mu.Unlock()
			return

		case sub := <-h.subscribe:
			h.mu.Lock()
			h.subscribers[sub] = struct{}{}
			total := len(h.subscribers)
			h.mu.Unlock()
			h.log.Info("subscriber attached", "total", total)

		case sub := <-h.unsubscribe:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
			}
			total := len(h.subscribers)
			h.mu.Unlock()
			h.log.Info("subscriber detached", "remaining", total)

		case frame := <-h.frames:
			h.mu.Lock()
			for sub := range h.subscribers {
				select {
				case sub.send <- frame:
				default:
					// Subscriber cannot keep up with the stream.
					close(sub.send)
					delete(h.subscribers, sub)
					h.log.Warn("dropped slow subscriber")
				}
			}
			h.mu.Unlock()
		}
	}
}

// PublishJSON encodes v and queues it for every subscriber. Frames are
// dropped, not blocked on, when the stream backs up.
func (h *Hub) PublishJSON(v any) error {
	frame, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case h.frames <- frame:
	default:
		h.log.Warn("stream backed up, dropping frame")
	}
	return nil
}

// SubscriberCount reports how many connections are attached.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
