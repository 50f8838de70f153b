// Package mocap ingests solved rigid-body poses from a motion-capture
// bridge and exposes them to stage behaviors as named bodies.
//
// Bodies are owned by a Registry and updated once per incoming frame.
// Behaviors only ever read snapshots; a body that has never been seen,
// or whose last sample is stale, reports not-ok and the behavior skips
// its tick.
package mocap

import (
	"sync"
	"time"

	"github.com/inmotionlab/go-stagehand/pkg/space"
)

// Sample is one solved pose for a rigid body.
type Sample struct {
	// Position in room coordinates (meters).
	Position space.Vec3

	// Rotation of the body in room coordinates.
	Rotation space.Quat

	// Tracked is false when the solver lost the body this frame
	// (occlusion, marker swap). An untracked sample is kept but
	// not served to behaviors.
	Tracked bool

	// CapturedAt is when the registry applied the frame.
	CapturedAt time.Time
}

// Body is a named handle to the latest sample for one rigid body.
// Handles are created by Registry.Handle and stay valid for the life
// of the registry, even before the bridge has reported the body.
type Body struct {
	name       string
	staleAfter time.Duration

	mu     sync.RWMutex
	sample Sample
	seen   bool
}

// Name returns the rigid-body name as configured in the mocap software.
func (b *Body) Name() string {
	return b.name
}

// Snapshot returns the latest sample. ok is false when the body has
// never been reported, the solver lost it, or the sample is older
// than the registry's staleness window.
func (b *Body) Snapshot() (Sample, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.seen || !b.sample.Tracked {
		return Sample{}, false
	}
	if b.staleAfter > 0 && time.Since(b.sample.CapturedAt) > b.staleAfter {
		return Sample{}, false
	}
	return b.sample, true
}

// update stores a new sample. Called by the registry only.
func (b *Body) update(s Sample) {
	b.mu.Lock()
	b.sample = s
	b.seen = true
	b.mu.Unlock()
}
