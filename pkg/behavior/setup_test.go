package behavior

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inmotionlab/go-stagehand/pkg/journal"
	"github.com/inmotionlab/go-stagehand/pkg/mocap"
	"github.com/inmotionlab/go-stagehand/pkg/scene"
)

const setupYAML = `
props:
  - name: welcome-zone
    position: [0, 0, 2]
    scale: [2, 2, 2]
  - name: zone-marker
    position: [0, 1, 2]
    hidden: true
  - name: sphere-one
    position: [0, 1, 0]
    scale: [0.3, 0.3, 0.3]
  - name: sphere-two
    position: [1, 1, 0]
    scale: [0.3, 0.3, 0.3]
  - name: media-panel
    position: [0, 1.8, 0]
    scale: [0.5, 0.5, 0.5]

behaviors:
  - kind: dwell
    name: welcome
    subject: visitor-one
    zone: welcome-zone
    marker: zone-marker
    subject_prop: sphere-one
    companion: sphere-two
    radius: 1
    hold_seconds: 3
    release_seconds: 2

  - kind: proximity
    name: shared-media
    host: visitor-one
    guest: visitor-two
    media: media-panel
    outer_radius: 12
    inner_radius: 20
    leave_seconds: 2
    split_after_seconds: 5
    offset:
      y: 0.8
    position_rate: 8
    scale_rate: 4
    grow_scale: 1.6
`

func writeSetup(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "setup.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write setup: %v", err)
	}
	return path
}

func TestSetup_LoadAndBuild(t *testing.T) {
	setup, err := Load(writeSetup(t, setupYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	stage := scene.New()
	registry := mocap.NewRegistry(time.Minute)
	built, err := setup.Build(stage, registry, journal.Discard)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(built) != 2 {
		t.Fatalf("Built behaviors: got %d, want 2", len(built))
	}

	// Props landed on the stage with their declared placement.
	zone, ok := stage.Prop("welcome-zone")
	if !ok {
		t.Fatal("welcome-zone missing")
	}
	if zone.Position().Z != 2 || zone.Scale().X != 2 {
		t.Errorf("Zone transform: %+v", zone.Transform())
	}
	marker, _ := stage.Prop("zone-marker")
	if marker.Visible() {
		t.Error("Hidden prop built visible")
	}

	// The declared inner radius 20 exceeds the outer 12 and must have
	// been clamped to 11.9 on build.
	var prox *ProximityMedia
	for _, b := range built {
		if p, ok := b.(*ProximityMedia); ok {
			prox = p
		}
	}
	if prox == nil {
		t.Fatal("Proximity behavior not built")
	}
	if got := prox.Config().InnerRadius; math.Abs(got-11.9) > 1e-9 {
		t.Errorf("InnerRadius: got %v, want 11.9", got)
	}
	if got := prox.Config().Offset.Y; got != 0.8 {
		t.Errorf("Offset.Y: got %v, want 0.8", got)
	}
}

func TestSetup_UnknownPropRejected(t *testing.T) {
	setup := &Setup{
		Behaviors: []BehaviorSpec{{
			Kind: "dwell", Name: "welcome", Subject: "visitor-one",
			Zone: "nowhere", Marker: "nowhere", SubjectProp: "nowhere",
		}},
	}
	_, err := setup.Build(scene.New(), mocap.NewRegistry(time.Minute), journal.Discard)
	if !errors.Is(err, ErrUnknownProp) {
		t.Errorf("Expected ErrUnknownProp, got %v", err)
	}
}

func TestSetup_UnknownKindRejected(t *testing.T) {
	setup := &Setup{
		Behaviors: []BehaviorSpec{{Kind: "teleport", Name: "nope"}},
	}
	_, err := setup.Build(scene.New(), mocap.NewRegistry(time.Minute), journal.Discard)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
}

func TestSetup_DuplicateNamesRejected(t *testing.T) {
	setup := &Setup{
		Props: []PropSpec{{Name: "twice"}, {Name: "twice"}},
	}
	_, err := setup.Build(scene.New(), mocap.NewRegistry(time.Minute), journal.Discard)
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("Expected ErrDuplicateName, got %v", err)
	}
}

func TestSetup_MissingSubjectRejected(t *testing.T) {
	setup := &Setup{
		Props: []PropSpec{{Name: "z"}, {Name: "m"}, {Name: "s"}},
		Behaviors: []BehaviorSpec{{
			Kind: "dwell", Name: "welcome",
			Zone: "z", Marker: "m", SubjectProp: "s",
		}},
	}
	_, err := setup.Build(scene.New(), mocap.NewRegistry(time.Minute), journal.Discard)
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("Expected ErrMissingField, got %v", err)
	}
}

func TestSetup_BadYAMLRejected(t *testing.T) {
	_, err := Load(writeSetup(t, "props: [not: {valid"))
	if err == nil {
		t.Error("Malformed YAML accepted")
	}
}
