// Package journal records what the installation did: zone triggers
// engaging, media controllers changing state, splits, and service
// lifecycle. Behaviors emit events through a Recorder; stores persist
// them for the operator dashboard and post-show review.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an event.
type Kind string

const (
	KindZoneEngaged  Kind = "zone_engaged"
	KindZoneReleased Kind = "zone_released"
	KindMediaState   Kind = "media_state"
	KindMediaSplit   Kind = "media_split"
	KindServiceStart Kind = "service_start"
	KindServiceStop  Kind = "service_stop"
)

// Event is one journal entry.
type Event struct {
	ID       string         `json:"id"`
	At       time.Time      `json:"at"`
	Kind     Kind           `json:"kind"`
	Behavior string         `json:"behavior,omitempty"` // Emitting behavior name
	Subject  string         `json:"subject,omitempty"`  // Body or prop the event is about
	Detail   map[string]any `json:"detail,omitempty"`
}

// New creates an event stamped with a fresh ID and the current time.
func New(kind Kind, behavior, subject string, detail map[string]any) Event {
	return Event{
		ID:       uuid.NewString(),
		At:       time.Now(),
		Kind:     kind,
		Behavior: behavior,
		Subject:  subject,
		Detail:   detail,
	}
}

// Recorder accepts events from the tick loop. Implementations must
// not block: the stage calls Record inline between distance checks.
type Recorder interface {
	Record(Event)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(Event)

// Record implements Recorder.
func (f RecorderFunc) Record(ev Event) { f(ev) }

// MultiRecorder fans one event out to several recorders.
func MultiRecorder(recorders ...Recorder) Recorder {
	return RecorderFunc(func(ev Event) {
		for _, r := range recorders {
			r.Record(ev)
		}
	})
}

// Discard drops every event. Useful default for tests.
var Discard Recorder = RecorderFunc(func(Event) {})

// Store persists events.
type Store interface {
	// Append writes one event.
	Append(ctx context.Context, ev Event) error

	// Recent returns up to n events, newest first.
	Recent(ctx context.Context, n int) ([]Event, error)

	// Close releases the store.
	Close() error
}
