// Package behavior implements the installation's per-frame behaviors:
// the dwell-zone trigger and the proximity media controller. Behaviors
// read tracked bodies, mutate stage props, and record journal events;
// they run synchronously inside the stage tick and hold no goroutines
// of their own.
package behavior

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inmotionlab/go-stagehand/pkg/journal"
	"github.com/inmotionlab/go-stagehand/pkg/mocap"
	"github.com/inmotionlab/go-stagehand/pkg/scene"
)

// DwellConfig tunes a dwell trigger.
type DwellConfig struct {
	// Radius of the zone in meters. <= 0 falls back to half the zone
	// prop's largest scale axis.
	Radius float64 `json:"radius" yaml:"radius"`

	// ExitScale enlarges the radius while engaged so a visitor
	// hovering on the boundary doesn't flicker the trigger. Values
	// <= 1 are lifted to the default 1.05.
	ExitScale float64 `json:"exit_scale" yaml:"exit_scale"`

	// HoldSeconds is how long the subject must stay inside before
	// the trigger engages.
	HoldSeconds float64 `json:"hold_seconds" yaml:"hold_seconds"`

	// ReleaseSeconds is how long the subject must stay outside the
	// enlarged radius before the trigger releases.
	ReleaseSeconds float64 `json:"release_seconds" yaml:"release_seconds"`
}

func (c *DwellConfig) normalize() {
	if c.ExitScale <= 1 {
		c.ExitScale = 1.05
	}
}

// DwellTrigger reveals a hidden marker after a tracked subject dwells
// inside a spherical zone, and hides it again after the subject stays
// away. The subject and companion props are hidden (render only) while
// the marker is shown; the subject prop stays active so its pose keeps
// updating.
type DwellTrigger struct {
	name    string
	subject *mocap.Body

	zone        *scene.Prop // defines the zone center (and fallback radius)
	marker      *scene.Prop // revealed while engaged
	subjectProp *scene.Prop // hidden while engaged, never deactivated
	companion   *scene.Prop // hidden while engaged; optional

	cfgMu sync.Mutex
	cfg   DwellConfig

	// Mutually exclusive dwell accumulators: whenever one grows the
	// other is zero.
	timeInside  float64
	timeOutside float64
	engaged     bool

	rec journal.Recorder
	log *slog.Logger
}

// NewDwellTrigger binds a dwell trigger to its subject body and props.
// companion may be nil.
func NewDwellTrigger(name string, subject *mocap.Body, zone, marker, subjectProp, companion *scene.Prop, cfg DwellConfig, rec journal.Recorder) *DwellTrigger {
	cfg.normalize()
	if rec == nil {
		rec = journal.Discard
	}
	d := &DwellTrigger{
		name:        name,
		subject:     subject,
		zone:        zone,
		marker:      marker,
		subjectProp: subjectProp,
		companion:   companion,
		cfg:         cfg,
		rec:         rec,
		log:         slog.Default().With("component", "dwell", "behavior", name),
	}
	// The marker starts hidden; it only exists to be revealed.
	if d.marker != nil {
		d.marker.SetVisible(false)
	}
	return d
}

// Name implements scene.Ticker.
func (d *DwellTrigger) Name() string { return d.name }

// Engaged reports whether the trigger is currently engaged.
func (d *DwellTrigger) Engaged() bool { return d.engaged }

// Config returns the current tuning.
func (d *DwellTrigger) Config() DwellConfig {
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()
	return d.cfg
}

// DwellPatch is a partial tuning update; nil fields are left alone.
type DwellPatch struct {
	Radius         *float64 `json:"radius,omitempty"`
	ExitScale      *float64 `json:"exit_scale,omitempty"`
	HoldSeconds    *float64 `json:"hold_seconds,omitempty"`
	ReleaseSeconds *float64 `json:"release_seconds,omitempty"`
}

// Retune applies a JSON patch from the dashboard.
func (d *DwellTrigger) Retune(patch []byte) error {
	var p DwellPatch
	if err := json.Unmarshal(patch, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPatch, err)
	}

	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()
	if p.Radius != nil {
		d.cfg.Radius = *p.Radius
	}
	if p.ExitScale != nil {
		d.cfg.ExitScale = *p.ExitScale
	}
	if p.HoldSeconds != nil {
		d.cfg.HoldSeconds = *p.HoldSeconds
	}
	if p.ReleaseSeconds != nil {
		d.cfg.ReleaseSeconds = *p.ReleaseSeconds
	}
	d.cfg.normalize()
	return nil
}

// Tick implements scene.Ticker. A missing subject sample or zone prop
// makes the tick a no-op.
func (d *DwellTrigger) Tick(dt float64) {
	if d.zone == nil || d.subject == nil {
		return
	}
	sample, ok := d.subject.Snapshot()
	if !ok {
		return
	}

	d.cfgMu.Lock()
	cfg := d.cfg
	d.cfgMu.Unlock()

	radius := cfg.Radius
	if radius <= 0 {
		radius = d.zone.MaxScaleAxis() / 2
	}

	dist := sample.Position.Distance(d.zone.Position())

	if !d.engaged {
		if dist <= radius {
			d.timeInside += dt
		} else {
			d.timeInside = 0
		}
		if d.timeInside >= cfg.HoldSeconds {
			d.engage(dist)
		}
		return
	}

	// Engaged: the boundary grows by ExitScale so a visitor sitting
	// right on the edge keeps counting as inside.
	exitRadius := radius * cfg.ExitScale
	if dist > exitRadius {
		d.timeOutside += dt
	} else {
		d.timeOutside = 0
	}
	if d.timeOutside >= cfg.ReleaseSeconds {
		d.release(dist)
	}
}

func (d *DwellTrigger) engage(dist float64) {
	d.engaged = true
	d.timeInside = 0
	d.timeOutside = 0

	if d.marker != nil {
		d.marker.SetVisible(true)
	}
	if d.subjectProp != nil {
		d.subjectProp.SetVisible(false)
	}
	if d.companion != nil {
		d.companion.SetVisible(false)
	}

	d.log.Info("zone engaged", "distance", dist)
	d.rec.Record(journal.New(journal.KindZoneEngaged, d.name, d.subject.Name(),
		map[string]any{"distance": dist}))
}

func (d *DwellTrigger) release(dist float64) {
	d.engaged = false
	d.timeInside = 0
	d.timeOutside = 0

	if d.marker != nil {
		d.marker.SetVisible(false)
	}
	if d.subjectProp != nil {
		d.subjectProp.SetVisible(true)
	}
	if d.companion != nil {
		d.companion.SetVisible(true)
	}

	d.log.Info("zone released", "distance", dist)
	d.rec.Record(journal.New(journal.KindZoneReleased, d.name, d.subject.Name(),
		map[string]any{"distance": dist}))
}
