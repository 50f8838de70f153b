package mocap

import (
	"errors"
	"math"
	"testing"

	"github.com/inmotionlab/go-stagehand/pkg/space"
)

func TestScript_Interpolation(t *testing.T) {
	script, err := NewScript(Track{
		Body: "visitor-one",
		Keyframes: []Keyframe{
			{At: 0, Position: space.Vec3{X: 0}},
			{At: 10, Position: space.Vec3{X: 10}},
		},
	})
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}

	cases := []struct {
		t    float64
		want float64
	}{
		{-1, 0},  // Held before first keyframe
		{0, 0},   // Exactly on keyframe
		{5, 5},   // Midpoint
		{10, 10}, // Last keyframe
		{99, 10}, // Held after last keyframe
	}
	for _, tc := range cases {
		f := script.FrameAt(tc.t)
		if len(f.Bodies) != 1 {
			t.Fatalf("t=%v: bodies=%d", tc.t, len(f.Bodies))
		}
		got := f.Bodies[0].Position[0]
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("t=%v: x=%v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestScript_SortsKeyframes(t *testing.T) {
	script, err := NewScript(Track{
		Body: "visitor-one",
		Keyframes: []Keyframe{
			{At: 10, Position: space.Vec3{X: 10}},
			{At: 0, Position: space.Vec3{X: 0}},
		},
	})
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}
	f := script.FrameAt(5)
	if got := f.Bodies[0].Position[0]; math.Abs(got-5) > 1e-9 {
		t.Errorf("x=%v, want 5", got)
	}
}

func TestScript_EmptyTrackRejected(t *testing.T) {
	_, err := NewScript(Track{Body: "ghost"})
	if !errors.Is(err, ErrNoTrack) {
		t.Errorf("Expected ErrNoTrack, got %v", err)
	}
}

func TestScript_Duration(t *testing.T) {
	script, err := NewScript(
		Track{Body: "a", Keyframes: []Keyframe{{At: 3}}},
		Track{Body: "b", Keyframes: []Keyframe{{At: 7}}},
	)
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}
	if got := script.Duration(); got != 7 {
		t.Errorf("Duration: got %v, want 7", got)
	}
}

func TestScript_FramesAreTracked(t *testing.T) {
	script, err := NewScript(Track{
		Body:      "visitor-one",
		Keyframes: []Keyframe{{At: 0, Position: space.Vec3{}}},
	})
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}
	f := script.FrameAt(0)
	if !f.Bodies[0].Tracked {
		t.Error("Scripted body not tracked")
	}
	if f.Bodies[0].Rotation != [4]float64{1, 0, 0, 0} {
		t.Errorf("Rotation: got %v, want identity", f.Bodies[0].Rotation)
	}
}
