package flight

import (
	"fmt"
)

const (
	// PrioritizeThrottle keeps the commanded throttle and scales attitude
	// corrections down when a motor would saturate.
	PrioritizeThrottle MixingStrategy = iota

	// PrioritizeAttitude keeps full attitude authority and shifts throttle
	// instead (air-mode).
	PrioritizeAttitude
)

// MixingStrategy selects how the mixer resolves motor saturation.
type MixingStrategy int

func (s MixingStrategy) String() string {
	switch s {
	case PrioritizeThrottle:
		return "prioritize-throttle"
	case PrioritizeAttitude:
		return "prioritize-attitude"
	default:
		return fmt.Sprintf("MixingStrategy(%d)", int(s))
	}
}

// ParseMixingStrategy is the inverse of MixingStrategy.String.
func ParseMixingStrategy(s string) (MixingStrategy, error) {
	switch s {
	case "prioritize-throttle":
		return PrioritizeThrottle, nil
	case "prioritize-attitude":
		return PrioritizeAttitude, nil
	default:
		return 0, fmt.Errorf("unknown mixing strategy: %q", s)
	}
}

// State is the vehicle state snapshot for one control tick. All vectors are in
// the body frame.
type State struct {
	Rotation         Vec3    `json:"rotation"`         // Attitude in degrees, each component in (-180, 180]
	AngularVelocity  Vec3    `json:"angularVelocity"`  // Body rates in deg/s
	Velocity         Vec3    `json:"velocity"`         // Linear velocity in m/s (X right, Y up, Z forward)
	VerticalVelocity float64 `json:"verticalVelocity"` // Climb rate in m/s
}

// Sanitize returns a copy of the state with non-finite components zeroed and
// the rotation wrapped into (-180, 180].
func (s State) Sanitize() State {
	return State{
		Rotation:         NormalizeAngles(s.Rotation.Sanitize()),
		AngularVelocity:  s.AngularVelocity.Sanitize(),
		Velocity:         s.Velocity.Sanitize(),
		VerticalVelocity: SanitizeFinite(s.VerticalVelocity),
	}
}

// Input is the pilot input snapshot for one control tick.
type Input struct {
	Cyclic     Vec2    `json:"cyclic"`               // Roll (X) and pitch (Y) stick, [-1, 1]
	Yaw        float64 `json:"yaw"`                  // Yaw stick, [-1, 1]
	Throttle   float64 `json:"throttle"`             // Throttle stick, [0, 1]
	ModeSwitch bool    `json:"modeSwitch,omitempty"` // Set only on the tick the mode switch was pressed
}

// Sanitize returns a copy of the input with non-finite axes zeroed.
func (in Input) Sanitize() Input {
	return Input{
		Cyclic:     in.Cyclic.Sanitize(),
		Yaw:        SanitizeFinite(in.Yaw),
		Throttle:   SanitizeFinite(in.Throttle),
		ModeSwitch: in.ModeSwitch,
	}
}

// Output is what a flight mode commands for one tick: body rates for the rate
// loop and a throttle fraction for the mixer.
type Output struct {
	TargetRate Vec3    `json:"targetRate"` // deg/s, X pitch, Y yaw, Z roll
	Throttle   float64 `json:"throttle"`   // [0, 1]
}
