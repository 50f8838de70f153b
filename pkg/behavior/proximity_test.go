package behavior

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/inmotionlab/go-stagehand/pkg/journal"
	"github.com/inmotionlab/go-stagehand/pkg/mocap"
	"github.com/inmotionlab/go-stagehand/pkg/scene"
	"github.com/inmotionlab/go-stagehand/pkg/space"
)

func defaultProximityConfig() ProximityConfig {
	return ProximityConfig{
		OuterRadius:       12,
		InnerRadius:       5,
		LeaveSeconds:      2,
		SplitAfterSeconds: 5,
		PositionRate:      8,
		ScaleRate:         4,
		GrowScale:         1.6,
	}
}

type proximityFixture struct {
	registry *mocap.Registry
	stage    *scene.Stage
	media    *scene.Prop
	ctrl     *ProximityMedia
	store    *journal.Memory
}

func newProximityFixture(t *testing.T, cfg ProximityConfig) *proximityFixture {
	t.Helper()
	registry := mocap.NewRegistry(time.Minute)
	stage := scene.New()
	store := journal.NewMemory(100)

	media := stage.AddProp("media-panel", scene.Transform{
		Rotation: space.Identity(),
		Scale:    space.Vec3{X: 0.5, Y: 0.5, Z: 0.5},
	})

	ctrl := NewProximityMedia("shared-media",
		registry.Handle("visitor-one"), registry.Handle("visitor-two"),
		media, stage, cfg, store)
	stage.AddBehavior(ctrl)

	return &proximityFixture{registry: registry, stage: stage, media: media, ctrl: ctrl, store: store}
}

// tickAt places the host at origin and the guest at distance d on X,
// then runs one stage tick.
func (f *proximityFixture) tickAt(d, dt float64) {
	placeBody(f.registry, "visitor-one", space.Vec3{})
	placeBody(f.registry, "visitor-two", space.Vec3{X: d})
	f.stage.Tick(dt)
}

func TestProximityMedia_StateWalkInward(t *testing.T) {
	f := newProximityFixture(t, defaultProximityConfig())

	f.tickAt(20, 0.016)
	if got := f.ctrl.State(); got != StateSolo {
		t.Fatalf("At d=20: got %s, want solo", got)
	}

	f.tickAt(10, 0.016)
	if got := f.ctrl.State(); got != StateApproach {
		t.Fatalf("At d=10: got %s, want approach", got)
	}

	f.tickAt(3, 0.016)
	if got := f.ctrl.State(); got != StateCentered {
		t.Fatalf("At d=3: got %s, want centered", got)
	}
}

func TestProximityMedia_SoloJumpsStraightToCentered(t *testing.T) {
	f := newProximityFixture(t, defaultProximityConfig())
	f.tickAt(3, 0.016)
	if got := f.ctrl.State(); got != StateCentered {
		t.Errorf("Close first contact: got %s, want centered", got)
	}
}

func TestProximityMedia_LeavingConfirmsBeforeSolo(t *testing.T) {
	f := newProximityFixture(t, defaultProximityConfig())

	f.tickAt(10, 0.016) // approach
	f.tickAt(20, 0.016)
	if got := f.ctrl.State(); got != StateLeaving {
		t.Fatalf("Beyond outer: got %s, want leaving", got)
	}

	// 1 second out of the required 2: still leaving.
	for i := 0; i < 10; i++ {
		f.tickAt(20, 0.1)
	}
	if got := f.ctrl.State(); got != StateLeaving {
		t.Fatalf("Mid leave: got %s, want leaving", got)
	}

	// Re-entry cancels the leave.
	f.tickAt(10, 0.016)
	if got := f.ctrl.State(); got != StateApproach {
		t.Fatalf("Re-entry: got %s, want approach", got)
	}

	// A full confirmed leave lands back in solo.
	f.tickAt(20, 0.016)
	for i := 0; i < 25; i++ {
		f.tickAt(20, 0.1)
	}
	if got := f.ctrl.State(); got != StateSolo {
		t.Errorf("Confirmed leave: got %s, want solo", got)
	}
}

func TestProximityMedia_GrowsAndShrinks(t *testing.T) {
	cfg := defaultProximityConfig()
	f := newProximityFixture(t, cfg)
	baseline := f.media.Scale()

	// Long stretch in approach: scale converges to baseline x grow.
	for i := 0; i < 300; i++ {
		f.tickAt(10, 0.016)
	}
	want := baseline.Scale(cfg.GrowScale)
	if math.Abs(f.media.Scale().X-want.X) > 0.01 {
		t.Errorf("Grown scale: got %v, want ~%v", f.media.Scale().X, want.X)
	}

	// Back to solo: scale returns to baseline.
	f.tickAt(20, 0.016)
	for i := 0; i < 25; i++ {
		f.tickAt(20, 0.1)
	}
	for i := 0; i < 300; i++ {
		f.tickAt(20, 0.016)
	}
	if math.Abs(f.media.Scale().X-baseline.X) > 0.01 {
		t.Errorf("Shrunk scale: got %v, want ~%v", f.media.Scale().X, baseline.X)
	}
}

func TestProximityMedia_CenteredFollowsMidpointX(t *testing.T) {
	cfg := defaultProximityConfig()
	cfg.Offset = space.Vec3{Y: 1.5}
	f := newProximityFixture(t, cfg)

	// Host at origin, guest at x=4: centered target is x=2, y from
	// the host follow offset.
	for i := 0; i < 500; i++ {
		f.tickAt(4, 0.016)
	}
	pos := f.media.Position()
	if math.Abs(pos.X-2) > 0.01 {
		t.Errorf("Centered X: got %v, want ~2", pos.X)
	}
	if math.Abs(pos.Y-1.5) > 0.01 {
		t.Errorf("Centered Y: got %v, want ~1.5", pos.Y)
	}
}

func TestProximityMedia_NeverSnaps(t *testing.T) {
	cfg := defaultProximityConfig()
	cfg.PositionRate = 3
	f := newProximityFixture(t, cfg)

	f.tickAt(20, 0.016)
	before := f.media.Position()

	// Teleport the guest close; one tick must move the media only a
	// fraction of the way to the new target.
	f.tickAt(3, 0.016)
	after := f.media.Position()

	if after.Distance(before) > before.Distance(space.Vec3{X: 1.5})*0.2 {
		t.Errorf("Media snapped: moved %v in one tick", after.Distance(before))
	}
}

func TestProximityMedia_SplitAfterCenteredDwell(t *testing.T) {
	f := newProximityFixture(t, defaultProximityConfig())

	// 5+ seconds centered, then exit the inner radius.
	f.tickAt(3, 0.016)
	for i := 0; i < 55; i++ {
		f.tickAt(3, 0.1)
	}
	f.tickAt(8, 0.016)

	if !f.ctrl.Split() || !f.ctrl.SplitMode() {
		t.Fatal("No split after qualifying exit")
	}

	// Exactly one clone prop and one adopted sibling.
	snap := func() scene.Snapshot { f.stage.Tick(0.016); return f.stage.Snapshot() }()
	if len(snap.Props) != 2 {
		t.Fatalf("Props after split: got %d, want 2", len(snap.Props))
	}
	if len(snap.Behaviors) != 2 {
		t.Fatalf("Behaviors after split: got %d, want 2", len(snap.Behaviors))
	}

	events, _ := f.store.Recent(context.Background(), 0)
	splits := 0
	for _, ev := range events {
		if ev.Kind == journal.KindMediaSplit {
			splits++
		}
	}
	if splits != 1 {
		t.Errorf("Split events: got %d, want 1", splits)
	}
}

func TestProximityMedia_NoSplitWithoutDwell(t *testing.T) {
	f := newProximityFixture(t, defaultProximityConfig())

	// Only 1 second centered before exiting.
	f.tickAt(3, 0.016)
	for i := 0; i < 10; i++ {
		f.tickAt(3, 0.1)
	}
	f.tickAt(8, 0.016)

	if f.ctrl.Split() {
		t.Error("Split without sufficient centered dwell")
	}
	if got := f.ctrl.State(); got != StateApproach {
		t.Errorf("Exit without split: got %s, want approach", got)
	}
}

func TestProximityMedia_SplitIsIdempotent(t *testing.T) {
	f := newProximityFixture(t, defaultProximityConfig())

	f.tickAt(3, 0.016)
	for i := 0; i < 55; i++ {
		f.tickAt(3, 0.1)
	}
	f.tickAt(8, 0.016)
	if !f.ctrl.Split() {
		t.Fatal("Setup: no split")
	}

	// Walk the pair back in and out well past the split threshold;
	// nothing new may appear.
	for i := 0; i < 60; i++ {
		f.tickAt(3, 0.1)
	}
	for i := 0; i < 30; i++ {
		f.tickAt(20, 0.1)
	}

	snap := f.stage.Snapshot()
	if len(snap.Props) != 2 {
		t.Errorf("Props after re-approach: got %d, want 2", len(snap.Props))
	}
	if len(snap.Behaviors) != 2 {
		t.Errorf("Behaviors after re-approach: got %d, want 2", len(snap.Behaviors))
	}
}

func TestProximityMedia_SplitModeFollowsAssignedBody(t *testing.T) {
	f := newProximityFixture(t, defaultProximityConfig())

	f.tickAt(3, 0.016)
	for i := 0; i < 55; i++ {
		f.tickAt(3, 0.1)
	}
	f.tickAt(8, 0.016)
	if !f.ctrl.SplitMode() {
		t.Fatal("Setup: no split")
	}

	// Host parked at origin, guest far away: the original converges
	// on the host, the clone on the guest.
	for i := 0; i < 600; i++ {
		f.tickAt(8, 0.016)
	}

	if got := f.media.Position().Distance(space.Vec3{}); got > 0.05 {
		t.Errorf("Original not on host: %v away", got)
	}

	snap := f.stage.Snapshot()
	var clonePos space.Vec3
	for _, ps := range snap.Props {
		if ps.Name != "media-panel" {
			clonePos = ps.Transform.Position
		}
	}
	if got := clonePos.Distance(space.Vec3{X: 8}); got > 0.05 {
		t.Errorf("Clone not on guest: %v away", got)
	}
}

func TestProximityConfig_ClampOnRetune(t *testing.T) {
	cfg := defaultProximityConfig()
	cfg.InnerRadius = 5
	f := newProximityFixture(t, cfg)

	// Shrinking the outer radius to 5 must pull the inner to 4.9.
	if err := f.ctrl.Retune([]byte(`{"outer_radius": 5}`)); err != nil {
		t.Fatalf("Retune: %v", err)
	}
	got := f.ctrl.Config()
	if math.Abs(got.InnerRadius-4.9) > 1e-9 {
		t.Errorf("InnerRadius: got %v, want 4.9", got.InnerRadius)
	}
}

func TestProximityConfig_ClampFloor(t *testing.T) {
	cfg := ProximityConfig{OuterRadius: 10, InnerRadius: -3, GrowScale: 1.5}
	cfg.Clamp()
	if cfg.InnerRadius != 0.1 {
		t.Errorf("InnerRadius floor: got %v, want 0.1", cfg.InnerRadius)
	}
}

func TestProximityMedia_MissingBodyIsNoOp(t *testing.T) {
	f := newProximityFixture(t, defaultProximityConfig())

	// Only the host is tracked: state and media must not move.
	placeBody(f.registry, "visitor-one", space.Vec3{})
	before := f.media.Position()
	for i := 0; i < 50; i++ {
		f.stage.Tick(0.1)
	}
	if f.ctrl.State() != StateSolo {
		t.Error("State moved without a guest sample")
	}
	if f.media.Position() != before {
		t.Error("Media moved without a guest sample")
	}
}

func TestProximityMedia_LocalOffsetRotatesWithBody(t *testing.T) {
	cfg := defaultProximityConfig()
	cfg.Offset = space.Vec3{X: 1}
	cfg.LocalOffset = true
	f := newProximityFixture(t, cfg)

	// Host rotated 90° around +Y: local +X offset lands at -Z.
	s := math.Sin(math.Pi / 4)
	c := math.Cos(math.Pi / 4)
	f.registry.Apply(mocap.Frame{Bodies: []mocap.BodyPose{
		{Name: "visitor-one", Tracked: true, Rotation: [4]float64{c, 0, s, 0}},
		{Name: "visitor-two", Tracked: true, Position: [3]float64{50, 0, 0}, Rotation: [4]float64{1, 0, 0, 0}},
	}})
	for i := 0; i < 600; i++ {
		f.stage.Tick(0.016)
	}

	pos := f.media.Position()
	if math.Abs(pos.Z-(-1)) > 0.05 || math.Abs(pos.X) > 0.05 {
		t.Errorf("Local offset target: got %v, want ~(0, 0, -1)", pos)
	}
}
