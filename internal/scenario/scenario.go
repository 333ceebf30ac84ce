package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/flight-control/internal/flight"
)

// ErrInvalidScenario is returned when a scenario fails validation.
var ErrInvalidScenario = errors.New("invalid scenario")

// Duration is a time.Duration read from its string form, e.g. "1.5s".
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("scenario.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalJSON(bytes []byte) error {
	var v string
	if err := json.Unmarshal(bytes, &v); err != nil {
		return err
	}

	duration, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("scenario.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Scenario is a scripted flight: a sequence of segments, each holding (or
// ramping) pilot input and vehicle state for a while.
type Scenario struct {
	Name     string    `yaml:"name"`
	Segments []Segment `yaml:"segments"`
}

// Segment represents one stretch of a scenario
type Segment struct {
	Name     string   `yaml:"name"`
	Duration Duration `yaml:"duration"`

	// SwitchMode presses the mode switch on the first tick of the segment.
	SwitchMode bool `yaml:"switchMode"`

	Input Input `yaml:"input"`
	State State `yaml:"state"`

	// InputEnd and StateEnd, when set, are reached on the last tick of the
	// segment by linear interpolation from Input and State.
	InputEnd *Input `yaml:"inputEnd,omitempty"`
	StateEnd *State `yaml:"stateEnd,omitempty"`
}

// Input represents the pilot sticks in a scenario file
type Input struct {
	Cyclic   flight.Vec2 `yaml:"cyclic"`
	Yaw      float64     `yaml:"yaw"`
	Throttle float64     `yaml:"throttle"`
}

// State represents the vehicle state in a scenario file
type State struct {
	Rotation         flight.Vec3 `yaml:"rotation"`
	AngularVelocity  flight.Vec3 `yaml:"angularVelocity"`
	Velocity         flight.Vec3 `yaml:"velocity"`
	VerticalVelocity float64     `yaml:"verticalVelocity"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scenario from YAML.
func Parse(r io.Reader) (*Scenario, error) {
	var s Scenario
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) Validate() error {
	if len(s.Segments) == 0 {
		return fmt.Errorf("%w: no segments", ErrInvalidScenario)
	}
	for i, seg := range s.Segments {
		if seg.Duration <= 0 {
			return fmt.Errorf("%w: segment %d (%s): duration must be positive: %s given", ErrInvalidScenario, i, seg.Name, seg.Duration)
		}
	}
	return nil
}

// Duration is the total length of the scenario.
func (s *Scenario) Duration() time.Duration {
	var total time.Duration
	for _, seg := range s.Segments {
		total += seg.Duration.Duration()
	}
	return total
}

func (in Input) toFlight() flight.Input {
	return flight.Input{Cyclic: in.Cyclic, Yaw: in.Yaw, Throttle: in.Throttle}
}

func (st State) toFlight() flight.State {
	return flight.State{
		Rotation:         st.Rotation,
		AngularVelocity:  st.AngularVelocity,
		Velocity:         st.Velocity,
		VerticalVelocity: st.VerticalVelocity,
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func lerp2(a, b flight.Vec2, t float64) flight.Vec2 {
	return flight.Vec2{X: lerp(a.X, b.X, t), Y: lerp(a.Y, b.Y, t)}
}

func lerp3(a, b flight.Vec3, t float64) flight.Vec3 {
	return flight.Vec3{X: lerp(a.X, b.X, t), Y: lerp(a.Y, b.Y, t), Z: lerp(a.Z, b.Z, t)}
}

func (in Input) lerp(end Input, t float64) Input {
	return Input{
		Cyclic:   lerp2(in.Cyclic, end.Cyclic, t),
		Yaw:      lerp(in.Yaw, end.Yaw, t),
		Throttle: lerp(in.Throttle, end.Throttle, t),
	}
}

func (st State) lerp(end State, t float64) State {
	return State{
		Rotation:         lerp3(st.Rotation, end.Rotation, t),
		AngularVelocity:  lerp3(st.AngularVelocity, end.AngularVelocity, t),
		Velocity:         lerp3(st.Velocity, end.Velocity, t),
		VerticalVelocity: lerp(st.VerticalVelocity, end.VerticalVelocity, t),
	}
}
