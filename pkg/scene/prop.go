// Package scene owns the installation's props and runs the behavior
// tick loop. The stage and its props are owned by the tick goroutine;
// other goroutines observe the scene only through published snapshots.
package scene

import (
	"github.com/inmotionlab/go-stagehand/pkg/space"
)

// Transform is a prop's placement in the room.
type Transform struct {
	Position space.Vec3 `json:"position"`
	Rotation space.Quat `json:"rotation"`
	Scale    space.Vec3 `json:"scale"`
}

// UnitTransform returns a transform at the origin with identity
// rotation and unit scale.
func UnitTransform() Transform {
	return Transform{
		Rotation: space.Identity(),
		Scale:    space.Vec3{X: 1, Y: 1, Z: 1},
	}
}

// Prop is a named scene object: the renderer-facing handle behaviors
// move, scale, and toggle. Visible controls rendering only; Active
// controls whether the object exists for the host at all. The two are
// independent so a hidden prop can keep participating in logic.
//
// Props belong to a Stage and must only be touched from inside a tick.
type Prop struct {
	name      string
	transform Transform
	visible   bool
	active    bool

	// Incremented on every mutation; points at the owning stage's
	// revision counter.
	rev *uint64
}

// Name returns the prop's name.
func (p *Prop) Name() string { return p.name }

// Transform returns the current transform.
func (p *Prop) Transform() Transform { return p.transform }

// Position returns the current position.
func (p *Prop) Position() space.Vec3 { return p.transform.Position }

// Scale returns the current scale.
func (p *Prop) Scale() space.Vec3 { return p.transform.Scale }

// Rotation returns the current rotation.
func (p *Prop) Rotation() space.Quat { return p.transform.Rotation }

// Visible reports whether the prop is rendered.
func (p *Prop) Visible() bool { return p.visible }

// Active reports whether the prop is enabled in the host scene.
func (p *Prop) Active() bool { return p.active }

// SetPosition moves the prop.
func (p *Prop) SetPosition(v space.Vec3) {
	p.transform.Position = v
	p.touch()
}

// SetScale resizes the prop.
func (p *Prop) SetScale(v space.Vec3) {
	p.transform.Scale = v
	p.touch()
}

// SetTransform replaces the whole transform.
func (p *Prop) SetTransform(t Transform) {
	p.transform = t
	p.touch()
}

// SetVisible toggles rendering without disabling the prop.
func (p *Prop) SetVisible(visible bool) {
	if p.visible == visible {
		return
	}
	p.visible = visible
	p.touch()
}

// SetActive enables or disables the prop entirely.
func (p *Prop) SetActive(active bool) {
	if p.active == active {
		return
	}
	p.active = active
	p.touch()
}

// MaxScaleAxis returns the largest scale component. Used as the
// fallback zone radius (half of it) when none is configured.
func (p *Prop) MaxScaleAxis() float64 {
	s := p.transform.Scale
	max := s.X
	if s.Y > max {
		max = s.Y
	}
	if s.Z > max {
		max = s.Z
	}
	return max
}

func (p *Prop) touch() {
	if p.rev != nil {
		*p.rev++
	}
}
