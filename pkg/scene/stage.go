package scene

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Ticker is a behavior driven by the stage's tick loop.
type Ticker interface {
	// Name identifies the behavior in logs, events, and the dashboard.
	Name() string

	// Tick advances the behavior by dt seconds. Called once per
	// stage tick on the tick goroutine; must not block.
	Tick(dt float64)
}

// Stage owns the props and behaviors of one installation and drives
// them at a fixed rate. All prop and behavior state is confined to
// the tick goroutine; concurrent observers use Snapshot, which
// returns the scene as of the last completed tick.
type Stage struct {
	log *slog.Logger

	// Tick-goroutine state.
	props     map[string]*Prop
	order     []string // prop names in creation order
	behaviors []Ticker
	adopted   []Ticker // queued mid-tick, appended after the sweep
	revision  uint64
	ticks     uint64
	started   time.Time

	// onChange receives the fresh snapshot after any tick that
	// changed a prop. Optional; set before Run.
	onChange func(Snapshot)

	// Published snapshot for concurrent readers.
	snapMu sync.RWMutex
	snap   Snapshot
}

// PropState is one prop inside a snapshot.
type PropState struct {
	Name      string    `json:"name"`
	Transform Transform `json:"transform"`
	Visible   bool      `json:"visible"`
	Active    bool      `json:"active"`
}

// Snapshot is a serializable copy of the scene after a tick.
type Snapshot struct {
	Revision  uint64      `json:"revision"`
	Tick      uint64      `json:"tick"`
	At        time.Time   `json:"at"`
	Props     []PropState `json:"props"`
	Behaviors []string    `json:"behaviors"`
}

// New creates an empty stage.
func New() *Stage {
	return &Stage{
		log:     slog.Default().With("component", "stage"),
		props:   make(map[string]*Prop),
		started: time.Now(),
	}
}

// AddProp creates a prop on the stage. New props start visible and
// active. Setup-time only (or mid-tick via CloneProp).
func (s *Stage) AddProp(name string, t Transform) *Prop {
	p := &Prop{
		name:      name,
		transform: t,
		visible:   true,
		active:    true,
		rev:       &s.revision,
	}
	s.props[name] = p
	s.order = append(s.order, name)
	s.revision++
	return p
}

// Prop looks up a prop by name.
func (s *Stage) Prop(name string) (*Prop, bool) {
	p, ok := s.props[name]
	return p, ok
}

// CloneProp instantiates a copy of src under a new name, inheriting
// its transform, visibility, and activity. Safe to call mid-tick;
// this is how a media split materializes its second prop.
func (s *Stage) CloneProp(src *Prop, name string) *Prop {
	clone := s.AddProp(name, src.transform)
	clone.visible = src.visible
	clone.active = src.active
	return clone
}

// AddBehavior registers a behavior. Setup-time only; mid-tick
// additions must go through Adopt.
func (s *Stage) AddBehavior(b Ticker) {
	s.behaviors = append(s.behaviors, b)
}

// Adopt queues a behavior created during a tick (a split sibling).
// It joins the sweep from the next tick onward, so the current sweep
// is never mutated under its own iteration.
func (s *Stage) Adopt(b Ticker) {
	s.adopted = append(s.adopted, b)
}

// OnChange sets the snapshot sink invoked after every tick that
// changed the scene. Set before Run.
func (s *Stage) OnChange(fn func(Snapshot)) {
	s.onChange = fn
}

// Tick advances every behavior by dt seconds and publishes a fresh
// snapshot. Exposed for scripted runs and tests; live services call
// Run instead.
func (s *Stage) Tick(dt float64) {
	before := s.revision
	s.ticks++

	for _, b := range s.behaviors {
		b.Tick(dt)
	}

	if len(s.adopted) > 0 {
		for _, b := range s.adopted {
			s.log.Info("adopted behavior", "behavior", b.Name())
		}
		s.behaviors = append(s.behaviors, s.adopted...)
		s.adopted = s.adopted[:0]
	}

	changed := s.revision != before
	snap := s.buildSnapshot()

	s.snapMu.Lock()
	s.snap = snap
	s.snapMu.Unlock()

	if changed && s.onChange != nil {
		s.onChange(snap)
	}
}

// Run drives Tick at the given rate until ctx is cancelled, measuring
// real elapsed time between ticks so behaviors see true dt even when
// the scheduler hiccups.
func (s *Stage) Run(ctx context.Context, hz float64) error {
	if hz <= 0 {
		hz = 60
	}
	interval := time.Duration(float64(time.Second) / hz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("stage running", "hz", hz, "behaviors", len(s.behaviors), "props", len(s.props))

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("stage stopped", "ticks", s.ticks)
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			s.Tick(dt)
		}
	}
}

// Snapshot returns the scene as of the last completed tick.
func (s *Stage) Snapshot() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snap
}

// Uptime returns how long the stage has existed.
func (s *Stage) Uptime() time.Duration {
	return time.Since(s.started)
}

func (s *Stage) buildSnapshot() Snapshot {
	snap := Snapshot{
		Revision: s.revision,
		Tick:     s.ticks,
		At:       time.Now(),
		Props:    make([]PropState, 0, len(s.order)),
	}
	for _, name := range s.order {
		p := s.props[name]
		snap.Props = append(snap.Props, PropState{
			Name:      p.name,
			Transform: p.transform,
			Visible:   p.visible,
			Active:    p.active,
		})
	}
	for _, b := range s.behaviors {
		snap.Behaviors = append(snap.Behaviors, b.Name())
	}
	return snap
}
