package mocap

import (
	"sort"
	"sync"
	"time"
)

// Registry maps rigid-body names to their latest samples.
// Behaviors bind handles at setup time; ingestion (websocket client,
// inbound feed, or a script) applies frames as they arrive.
type Registry struct {
	staleAfter time.Duration

	mu     sync.RWMutex
	bodies map[string]*Body
}

// NewRegistry creates a registry. Bodies whose last sample is older
// than staleAfter report not-ok; staleAfter <= 0 disables the check
// (used by scripted runs at virtual time).
func NewRegistry(staleAfter time.Duration) *Registry {
	return &Registry{
		staleAfter: staleAfter,
		bodies:     make(map[string]*Body),
	}
}

// Handle returns the body with the given name, creating a placeholder
// if the bridge has not reported it yet. Behaviors can therefore bind
// before ingestion starts.
func (r *Registry) Handle(name string) *Body {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.bodies[name]; ok {
		return b
	}
	b := &Body{name: name, staleAfter: r.staleAfter}
	r.bodies[name] = b
	return b
}

// Apply updates all bodies named in the frame, stamping them with the
// current time. Unknown bodies are created so the dashboard can list
// everything the bridge reports.
func (r *Registry) Apply(f Frame) {
	now := time.Now()
	for _, pose := range f.Bodies {
		b := r.Handle(pose.Name)
		b.update(Sample{
			Position:   pose.Vec3(),
			Rotation:   pose.Quat(),
			Tracked:    pose.Tracked,
			CapturedAt: now,
		})
	}
}

// BodyStatus describes one registry entry for the dashboard.
type BodyStatus struct {
	Name     string      `json:"name"`
	Tracked  bool        `json:"tracked"`
	Stale    bool        `json:"stale"`
	Position [3]float64  `json:"position"`
	AgeMs    int64       `json:"age_ms"`
}

// Status returns the current state of every known body, sorted by name.
func (r *Registry) Status() []BodyStatus {
	r.mu.RLock()
	names := make([]string, 0, len(r.bodies))
	for name := range r.bodies {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)

	out := make([]BodyStatus, 0, len(names))
	for _, name := range names {
		b := r.Handle(name)

		b.mu.RLock()
		sample, seen := b.sample, b.seen
		b.mu.RUnlock()

		st := BodyStatus{Name: name}
		if seen {
			st.Tracked = sample.Tracked
			st.Position = [3]float64{sample.Position.X, sample.Position.Y, sample.Position.Z}
			age := time.Since(sample.CapturedAt)
			st.AgeMs = age.Milliseconds()
			st.Stale = r.staleAfter > 0 && age > r.staleAfter
		} else {
			st.Stale = true
		}
		out = append(out, st)
	}
	return out
}
