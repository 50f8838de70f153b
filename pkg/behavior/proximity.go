package behavior

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/inmotionlab/go-stagehand/pkg/journal"
	"github.com/inmotionlab/go-stagehand/pkg/mocap"
	"github.com/inmotionlab/go-stagehand/pkg/scene"
	"github.com/inmotionlab/go-stagehand/pkg/space"
)

// MediaState is the proximity controller's state in normal mode.
type MediaState int

const (
	// StateSolo: the guest is beyond the outer radius; the media
	// follows the host alone.
	StateSolo MediaState = iota

	// StateApproach: the guest is inside the outer radius; the media
	// grows toward the shared scale.
	StateApproach

	// StateCentered: the guest is inside the inner radius; the media
	// re-centers between host and guest and the split timer runs.
	StateCentered

	// StateLeaving: the guest crossed back out of the outer radius;
	// the leave timer runs before the controller returns to Solo.
	StateLeaving
)

// String returns the state name for logs and events.
func (s MediaState) String() string {
	switch s {
	case StateSolo:
		return "solo"
	case StateApproach:
		return "approach"
	case StateCentered:
		return "centered"
	case StateLeaving:
		return "leaving"
	default:
		return "unknown"
	}
}

// minInnerRadius keeps the inner radius away from zero and from the
// outer radius so the two boundaries can never invert.
const minInnerRadius = 0.1

// ProximityConfig tunes a proximity media controller.
type ProximityConfig struct {
	// OuterRadius and InnerRadius (meters) define the approach and
	// centered boundaries. InnerRadius is clamped into
	// [0.1, OuterRadius-0.1] whenever the config changes.
	OuterRadius float64 `json:"outer_radius" yaml:"outer_radius"`
	InnerRadius float64 `json:"inner_radius" yaml:"inner_radius"`

	// LeaveSeconds is how long the guest must stay beyond the outer
	// radius before the controller returns to Solo.
	LeaveSeconds float64 `json:"leave_seconds" yaml:"leave_seconds"`

	// SplitAfterSeconds is the centered dwell required before an
	// exit from the inner radius splits the media in two.
	SplitAfterSeconds float64 `json:"split_after_seconds" yaml:"split_after_seconds"`

	// Offset places the media relative to the followed body. With
	// LocalOffset the offset is rotated by the body's orientation,
	// otherwise it is applied in room coordinates.
	Offset      space.Vec3 `json:"offset" yaml:"offset"`
	LocalOffset bool       `json:"local_offset" yaml:"local_offset"`

	// PositionRate and ScaleRate are the exponential smoothing rates
	// (per second) the media moves and resizes with.
	PositionRate float64 `json:"position_rate" yaml:"position_rate"`
	ScaleRate    float64 `json:"scale_rate" yaml:"scale_rate"`

	// GrowScale multiplies the baseline scale while the guest is in
	// Approach or Centered. Values < 1 are lifted to 1.
	GrowScale float64 `json:"grow_scale" yaml:"grow_scale"`
}

// Clamp enforces the radius invariant. Applied on construction, on
// setup load, and after every retune.
func (c *ProximityConfig) Clamp() {
	if c.GrowScale < 1 {
		c.GrowScale = 1
	}
	hi := c.OuterRadius - minInnerRadius
	if hi < minInnerRadius {
		hi = minInnerRadius
	}
	c.InnerRadius = space.Clamp(c.InnerRadius, minInnerRadius, hi)
}

// StageOps is the slice of scene.Stage a split needs: adopting the
// sibling controller and instantiating its prop.
type StageOps interface {
	Adopt(scene.Ticker)
	CloneProp(src *scene.Prop, name string) *scene.Prop
}

// ProximityMedia runs one shared media object between two tracked
// people. In normal mode it follows the host, grows when the guest
// approaches, and centers between the two; after a long enough
// centered dwell, the first exit splits it into two independent
// split-mode controllers, one per person.
type ProximityMedia struct {
	name  string
	host  *mocap.Body
	guest *mocap.Body
	media *scene.Prop
	stage StageOps

	cfgMu sync.Mutex
	cfg   ProximityConfig

	state        MediaState
	leaveTimer   float64
	timeTogether float64

	// Split lineage: once true neither this controller nor its
	// sibling may split again.
	split     bool
	splitMode bool
	follow    *mocap.Body // the assigned body in split mode

	// baseline is the media's scale captured at construction; growth
	// multiplies it, split mode returns to it.
	baseline space.Vec3

	rec journal.Recorder
	log *slog.Logger
}

// NewProximityMedia binds a controller to its bodies and media prop.
// The media's current scale becomes the baseline.
func NewProximityMedia(name string, host, guest *mocap.Body, media *scene.Prop, stage StageOps, cfg ProximityConfig, rec journal.Recorder) *ProximityMedia {
	cfg.Clamp()
	if rec == nil {
		rec = journal.Discard
	}
	return &ProximityMedia{
		name:     name,
		host:     host,
		guest:    guest,
		media:    media,
		stage:    stage,
		cfg:      cfg,
		state:    StateSolo,
		follow:   host,
		baseline: media.Scale(),
		rec:      rec,
		log:      slog.Default().With("component", "proximity", "behavior", name),
	}
}

// Name implements scene.Ticker.
func (p *ProximityMedia) Name() string { return p.name }

// State returns the current normal-mode state.
func (p *ProximityMedia) State() MediaState { return p.state }

// Split reports whether this lineage has split.
func (p *ProximityMedia) Split() bool { return p.split }

// SplitMode reports whether the controller is locked to one body.
func (p *ProximityMedia) SplitMode() bool { return p.splitMode }

// Config returns the current tuning.
func (p *ProximityMedia) Config() ProximityConfig {
	p.cfgMu.Lock()
	defer p.cfgMu.Unlock()
	return p.cfg
}

// ProximityPatch is a partial tuning update; nil fields are left alone.
type ProximityPatch struct {
	OuterRadius       *float64 `json:"outer_radius,omitempty"`
	InnerRadius       *float64 `json:"inner_radius,omitempty"`
	LeaveSeconds      *float64 `json:"leave_seconds,omitempty"`
	SplitAfterSeconds *float64 `json:"split_after_seconds,omitempty"`
	PositionRate      *float64 `json:"position_rate,omitempty"`
	ScaleRate         *float64 `json:"scale_rate,omitempty"`
	GrowScale         *float64 `json:"grow_scale,omitempty"`
}

// Retune applies a JSON patch from the dashboard and re-clamps the
// radius invariant.
func (p *ProximityMedia) Retune(patch []byte) error {
	var pa ProximityPatch
	if err := json.Unmarshal(patch, &pa); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPatch, err)
	}

	p.cfgMu.Lock()
	defer p.cfgMu.Unlock()
	if pa.OuterRadius != nil {
		p.cfg.OuterRadius = *pa.OuterRadius
	}
	if pa.InnerRadius != nil {
		p.cfg.InnerRadius = *pa.InnerRadius
	}
	if pa.LeaveSeconds != nil {
		p.cfg.LeaveSeconds = *pa.LeaveSeconds
	}
	if pa.SplitAfterSeconds != nil {
		p.cfg.SplitAfterSeconds = *pa.SplitAfterSeconds
	}
	if pa.PositionRate != nil {
		p.cfg.PositionRate = *pa.PositionRate
	}
	if pa.ScaleRate != nil {
		p.cfg.ScaleRate = *pa.ScaleRate
	}
	if pa.GrowScale != nil {
		p.cfg.GrowScale = *pa.GrowScale
	}
	p.cfg.Clamp()
	return nil
}

// Tick implements scene.Ticker. A missing body sample makes the tick
// a no-op.
func (p *ProximityMedia) Tick(dt float64) {
	if p.media == nil {
		return
	}

	p.cfgMu.Lock()
	cfg := p.cfg
	p.cfgMu.Unlock()

	if p.splitMode {
		p.tickSplit(cfg, dt)
		return
	}

	hostS, ok := p.host.Snapshot()
	if !ok {
		return
	}
	guestS, ok := p.guest.Snapshot()
	if !ok {
		return
	}

	dist := hostS.Position.Distance(guestS.Position)

	switch p.state {
	case StateSolo:
		if dist <= cfg.InnerRadius {
			p.transition(StateCentered, dist)
		} else if dist <= cfg.OuterRadius {
			p.transition(StateApproach, dist)
		}

	case StateApproach:
		if dist <= cfg.InnerRadius {
			p.transition(StateCentered, dist)
		} else if dist > cfg.OuterRadius {
			p.transition(StateLeaving, dist)
		}

	case StateCentered:
		p.timeTogether += dt
		if dist > cfg.InnerRadius {
			if p.timeTogether >= cfg.SplitAfterSeconds && !p.split {
				p.splitNow(cfg, dist)
				return
			}
			if dist > cfg.OuterRadius {
				p.transition(StateLeaving, dist)
			} else {
				p.transition(StateApproach, dist)
			}
		}

	case StateLeaving:
		if dist <= cfg.OuterRadius {
			p.leaveTimer = 0
			if dist <= cfg.InnerRadius {
				p.transition(StateCentered, dist)
			} else {
				p.transition(StateApproach, dist)
			}
		} else {
			p.leaveTimer += dt
			if p.leaveTimer >= cfg.LeaveSeconds {
				p.timeTogether = 0
				p.leaveTimer = 0
				p.transition(StateSolo, dist)
			}
		}
	}

	p.move(cfg, hostS, guestS, dt)
}

// tickSplit runs the locked follower: position toward the assigned
// body's offset position, scale back toward baseline. The state
// machine is never consulted again.
func (p *ProximityMedia) tickSplit(cfg ProximityConfig, dt float64) {
	s, ok := p.follow.Snapshot()
	if !ok {
		return
	}
	target := followTarget(s, cfg)
	p.media.SetPosition(space.ApproachVec(p.media.Position(), target, cfg.PositionRate, dt))
	p.media.SetScale(space.ApproachVec(p.media.Scale(), p.baseline, cfg.ScaleRate, dt))
}

// move smooths the media toward the target pose for the current state.
func (p *ProximityMedia) move(cfg ProximityConfig, hostS, guestS mocap.Sample, dt float64) {
	hostTarget := followTarget(hostS, cfg)

	target := hostTarget
	if p.state == StateCentered {
		// Centered keeps the host-follow height and depth but slides
		// to the lateral midpoint between the two people.
		target.X = (hostS.Position.X + guestS.Position.X) / 2
	}

	scaleTarget := p.baseline
	if p.state == StateApproach || p.state == StateCentered {
		scaleTarget = p.baseline.Scale(cfg.GrowScale)
	}

	p.media.SetPosition(space.ApproachVec(p.media.Position(), target, cfg.PositionRate, dt))
	p.media.SetScale(space.ApproachVec(p.media.Scale(), scaleTarget, cfg.ScaleRate, dt))
}

// followTarget is the media's resting position relative to a body.
func followTarget(s mocap.Sample, cfg ProximityConfig) space.Vec3 {
	offset := cfg.Offset
	if cfg.LocalOffset {
		offset = s.Rotation.Rotate(offset)
	}
	return s.Position.Add(offset)
}

func (p *ProximityMedia) transition(to MediaState, dist float64) {
	if p.state == to {
		return
	}
	from := p.state
	p.state = to

	p.log.Info("media state", "from", from.String(), "to", to.String(), "distance", dist)
	p.rec.Record(journal.New(journal.KindMediaState, p.name, p.host.Name(), map[string]any{
		"from":     from.String(),
		"to":       to.String(),
		"distance": dist,
	}))
}

// splitNow forks the controller: this instance locks onto the host,
// and a new sibling with a cloned prop locks onto the guest. The tick
// that splits does nothing else; both instances run independently
// from the next tick. A lineage splits at most once.
func (p *ProximityMedia) splitNow(cfg ProximityConfig, dist float64) {
	p.split = true
	p.splitMode = true
	p.follow = p.host

	suffix := uuid.NewString()[:8]
	clone := p.stage.CloneProp(p.media, p.media.Name()+"-"+suffix)

	sibling := &ProximityMedia{
		name:      p.name + "-" + suffix,
		host:      p.guest,
		guest:     p.host,
		media:     clone,
		stage:     p.stage,
		cfg:       cfg,
		split:     true,
		splitMode: true,
		follow:    p.guest,
		baseline:  p.baseline,
		rec:       p.rec,
		log:       slog.Default().With("component", "proximity", "behavior", p.name+"-"+suffix),
	}
	p.stage.Adopt(sibling)

	p.log.Info("media split",
		"host", p.host.Name(), "guest", p.guest.Name(),
		"sibling", sibling.name, "together", p.timeTogether)
	p.rec.Record(journal.New(journal.KindMediaSplit, p.name, p.guest.Name(), map[string]any{
		"sibling":  sibling.name,
		"clone":    clone.Name(),
		"together": p.timeTogether,
		"distance": dist,
	}))
}
