package behavior

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inmotionlab/go-stagehand/pkg/journal"
	"github.com/inmotionlab/go-stagehand/pkg/mocap"
	"github.com/inmotionlab/go-stagehand/pkg/scene"
	"github.com/inmotionlab/go-stagehand/pkg/space"
)

// Setup is the declarative installation file: the props on the stage
// and the behaviors running over them.
type Setup struct {
	Props     []PropSpec     `yaml:"props"`
	Behaviors []BehaviorSpec `yaml:"behaviors"`
}

// PropSpec declares one prop and its initial placement.
type PropSpec struct {
	Name     string     `yaml:"name"`
	Position [3]float64 `yaml:"position"`
	Rotation [4]float64 `yaml:"rotation"` // w x y z; zero = identity
	Scale    [3]float64 `yaml:"scale"`    // zero = unit
	Hidden   bool       `yaml:"hidden"`
}

// BehaviorSpec declares one behavior. Kind selects which of the
// per-kind field groups applies.
type BehaviorSpec struct {
	Kind string `yaml:"kind"` // "dwell" or "proximity"
	Name string `yaml:"name"`

	// Dwell fields
	Subject     string `yaml:"subject"`      // tracked body
	Zone        string `yaml:"zone"`         // prop defining the zone
	Marker      string `yaml:"marker"`       // prop revealed on engage
	SubjectProp string `yaml:"subject_prop"` // prop hidden on engage
	Companion   string `yaml:"companion"`    // optional second hidden prop
	Dwell       DwellConfig `yaml:",inline"`

	// Proximity fields
	Host      string          `yaml:"host"`  // tracked body the media follows
	Guest     string          `yaml:"guest"` // tracked body that approaches
	Media     string          `yaml:"media"` // the media prop
	Proximity ProximityConfig `yaml:",inline"`
}

// Load reads and parses a setup file.
func Load(path string) (*Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("behavior: read setup: %w", err)
	}
	var setup Setup
	if err := yaml.Unmarshal(data, &setup); err != nil {
		return nil, fmt.Errorf("behavior: parse setup: %w", err)
	}
	return &setup, nil
}

// Build validates the setup and materializes it: props onto the
// stage, bodies out of the registry, behaviors registered and
// returned so the dashboard can expose their tuning.
func (s *Setup) Build(stage *scene.Stage, registry *mocap.Registry, rec journal.Recorder) ([]scene.Ticker, error) {
	seen := make(map[string]bool)

	for _, ps := range s.Props {
		if ps.Name == "" {
			return nil, fmt.Errorf("%w: prop name", ErrMissingField)
		}
		if seen[ps.Name] {
			return nil, fmt.Errorf("%w: prop %q", ErrDuplicateName, ps.Name)
		}
		seen[ps.Name] = true

		prop := stage.AddProp(ps.Name, propTransform(ps))
		if ps.Hidden {
			prop.SetVisible(false)
		}
	}

	var built []scene.Ticker
	names := make(map[string]bool)
	for i, bs := range s.Behaviors {
		if bs.Name == "" {
			return nil, fmt.Errorf("%w: behavior[%d] name", ErrMissingField, i)
		}
		if names[bs.Name] {
			return nil, fmt.Errorf("%w: behavior %q", ErrDuplicateName, bs.Name)
		}
		names[bs.Name] = true

		switch bs.Kind {
		case "dwell":
			b, err := s.buildDwell(bs, stage, registry, rec)
			if err != nil {
				return nil, err
			}
			stage.AddBehavior(b)
			built = append(built, b)

		case "proximity":
			b, err := s.buildProximity(bs, stage, registry, rec)
			if err != nil {
				return nil, err
			}
			stage.AddBehavior(b)
			built = append(built, b)

		default:
			return nil, fmt.Errorf("%w: %q (behavior %q)", ErrUnknownKind, bs.Kind, bs.Name)
		}
	}
	return built, nil
}

func (s *Setup) buildDwell(bs BehaviorSpec, stage *scene.Stage, registry *mocap.Registry, rec journal.Recorder) (*DwellTrigger, error) {
	if bs.Subject == "" {
		return nil, fmt.Errorf("%w: behavior %q subject", ErrMissingField, bs.Name)
	}

	zone, err := requireProp(stage, bs.Zone, bs.Name, "zone")
	if err != nil {
		return nil, err
	}
	marker, err := requireProp(stage, bs.Marker, bs.Name, "marker")
	if err != nil {
		return nil, err
	}
	subjectProp, err := requireProp(stage, bs.SubjectProp, bs.Name, "subject_prop")
	if err != nil {
		return nil, err
	}

	var companion *scene.Prop
	if bs.Companion != "" {
		companion, err = requireProp(stage, bs.Companion, bs.Name, "companion")
		if err != nil {
			return nil, err
		}
	}

	subject := registry.Handle(bs.Subject)
	return NewDwellTrigger(bs.Name, subject, zone, marker, subjectProp, companion, bs.Dwell, rec), nil
}

func (s *Setup) buildProximity(bs BehaviorSpec, stage *scene.Stage, registry *mocap.Registry, rec journal.Recorder) (*ProximityMedia, error) {
	if bs.Host == "" {
		return nil, fmt.Errorf("%w: behavior %q host", ErrMissingField, bs.Name)
	}
	if bs.Guest == "" {
		return nil, fmt.Errorf("%w: behavior %q guest", ErrMissingField, bs.Name)
	}

	media, err := requireProp(stage, bs.Media, bs.Name, "media")
	if err != nil {
		return nil, err
	}

	host := registry.Handle(bs.Host)
	guest := registry.Handle(bs.Guest)
	return NewProximityMedia(bs.Name, host, guest, media, stage, bs.Proximity, rec), nil
}

func requireProp(stage *scene.Stage, name, behavior, field string) (*scene.Prop, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: behavior %q %s", ErrMissingField, behavior, field)
	}
	prop, ok := stage.Prop(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (behavior %q %s)", ErrUnknownProp, name, behavior, field)
	}
	return prop, nil
}

func propTransform(ps PropSpec) scene.Transform {
	t := scene.UnitTransform()
	t.Position = space.Vec3{X: ps.Position[0], Y: ps.Position[1], Z: ps.Position[2]}
	if ps.Rotation != ([4]float64{}) {
		t.Rotation = space.Quat{W: ps.Rotation[0], X: ps.Rotation[1], Y: ps.Rotation[2], Z: ps.Rotation[3]}
	}
	if ps.Scale != ([3]float64{}) {
		t.Scale = space.Vec3{X: ps.Scale[0], Y: ps.Scale[1], Z: ps.Scale[2]}
	}
	return t
}
