package mocap

import (
	"fmt"
	"sort"

	"github.com/inmotionlab/go-stagehand/pkg/space"
)

// Keyframe pins a body position at a point in script time.
type Keyframe struct {
	At       float64 // Seconds from script start
	Position space.Vec3
}

// Track is the keyframed path of one body. Positions are linearly
// interpolated between keyframes and held flat outside them.
type Track struct {
	Body      string
	Keyframes []Keyframe
}

// Script is a deterministic frame source for walkthroughs and tests:
// it plays keyframed body paths at virtual time instead of reading a
// live bridge.
type Script struct {
	tracks []Track
	frame  uint64
}

// NewScript builds a script from tracks. Keyframes are sorted by time;
// a track without keyframes is an error.
func NewScript(tracks ...Track) (*Script, error) {
	for i := range tracks {
		if len(tracks[i].Keyframes) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoTrack, tracks[i].Body)
		}
		sort.SliceStable(tracks[i].Keyframes, func(a, b int) bool {
			return tracks[i].Keyframes[a].At < tracks[i].Keyframes[b].At
		})
	}
	return &Script{tracks: tracks}, nil
}

// Duration returns the time of the last keyframe across all tracks.
func (s *Script) Duration() float64 {
	var end float64
	for _, tr := range s.tracks {
		last := tr.Keyframes[len(tr.Keyframes)-1].At
		if last > end {
			end = last
		}
	}
	return end
}

// FrameAt returns the interpolated frame at script time t. Every body
// is reported as tracked with identity orientation.
func (s *Script) FrameAt(t float64) Frame {
	s.frame++
	f := Frame{Number: s.frame, Bodies: make([]BodyPose, 0, len(s.tracks))}
	for _, tr := range s.tracks {
		pos := tr.positionAt(t)
		f.Bodies = append(f.Bodies, BodyPose{
			Name:     tr.Body,
			Tracked:  true,
			Position: [3]float64{pos.X, pos.Y, pos.Z},
			Rotation: [4]float64{1, 0, 0, 0},
		})
	}
	return f
}

func (tr Track) positionAt(t float64) space.Vec3 {
	kfs := tr.Keyframes
	if t <= kfs[0].At {
		return kfs[0].Position
	}
	last := kfs[len(kfs)-1]
	if t >= last.At {
		return last.Position
	}
	for i := 1; i < len(kfs); i++ {
		if t > kfs[i].At {
			continue
		}
		prev, next := kfs[i-1], kfs[i]
		span := next.At - prev.At
		if span <= 0 {
			return next.Position
		}
		return prev.Position.Lerp(next.Position, (t-prev.At)/span)
	}
	return last.Position
}
