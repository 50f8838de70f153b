package mocap

import (
	"testing"
	"time"
)

func frameWith(poses ...BodyPose) Frame {
	return Frame{Number: 1, Bodies: poses}
}

func TestRegistry_HandleBeforeApply(t *testing.T) {
	r := NewRegistry(time.Minute)

	// Binding before the bridge reports must succeed but report not-ok.
	body := r.Handle("visitor-one")
	if _, ok := body.Snapshot(); ok {
		t.Fatal("Unseen body reported ok")
	}

	r.Apply(frameWith(BodyPose{
		Name:     "visitor-one",
		Tracked:  true,
		Position: [3]float64{1, 2, 3},
	}))

	sample, ok := body.Snapshot()
	if !ok {
		t.Fatal("Body not ok after apply")
	}
	if sample.Position.X != 1 || sample.Position.Y != 2 || sample.Position.Z != 3 {
		t.Errorf("Position: got %v", sample.Position)
	}
}

func TestRegistry_HandleReturnsSameBody(t *testing.T) {
	r := NewRegistry(time.Minute)
	a := r.Handle("visitor-one")
	b := r.Handle("visitor-one")
	if a != b {
		t.Error("Handle returned different pointers for the same name")
	}
}

func TestRegistry_UntrackedBodyNotServed(t *testing.T) {
	r := NewRegistry(time.Minute)
	body := r.Handle("visitor-one")

	r.Apply(frameWith(BodyPose{Name: "visitor-one", Tracked: false}))
	if _, ok := body.Snapshot(); ok {
		t.Error("Untracked sample served to behavior")
	}

	// Regains tracking on the next frame.
	r.Apply(frameWith(BodyPose{Name: "visitor-one", Tracked: true}))
	if _, ok := body.Snapshot(); !ok {
		t.Error("Re-tracked sample not served")
	}
}

func TestRegistry_StaleSample(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	body := r.Handle("visitor-one")

	r.Apply(frameWith(BodyPose{Name: "visitor-one", Tracked: true}))
	if _, ok := body.Snapshot(); !ok {
		t.Fatal("Fresh sample not served")
	}

	time.Sleep(25 * time.Millisecond)
	if _, ok := body.Snapshot(); ok {
		t.Error("Stale sample served to behavior")
	}
}

func TestRegistry_ZeroStalenessDisablesCheck(t *testing.T) {
	r := NewRegistry(0)
	body := r.Handle("visitor-one")
	r.Apply(frameWith(BodyPose{Name: "visitor-one", Tracked: true}))

	time.Sleep(5 * time.Millisecond)
	if _, ok := body.Snapshot(); !ok {
		t.Error("Sample rejected with staleness disabled")
	}
}

func TestRegistry_ApplyCreatesUnknownBodies(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.Apply(frameWith(BodyPose{Name: "prop-chair", Tracked: true}))

	status := r.Status()
	if len(status) != 1 || status[0].Name != "prop-chair" {
		t.Errorf("Status: got %+v", status)
	}
	if !status[0].Tracked || status[0].Stale {
		t.Errorf("Status flags: got %+v", status[0])
	}
}

func TestRegistry_StatusSorted(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.Handle("zeta")
	r.Handle("alpha")
	r.Handle("mid")

	status := r.Status()
	if len(status) != 3 {
		t.Fatalf("Status length: got %d", len(status))
	}
	if status[0].Name != "alpha" || status[1].Name != "mid" || status[2].Name != "zeta" {
		t.Errorf("Status order: got %s, %s, %s", status[0].Name, status[1].Name, status[2].Name)
	}
}
