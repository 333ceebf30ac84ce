package mode

import (
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/flight-control/internal/flight"
	"github.com/roman-kulish/flight-control/internal/pid"
)

const (
	RateModeName     = "ACRO / RATE"
	AngleModeName    = "ANGLE + ALT"
	VelocityModeName = "VELOCITY CRUISE"
)

// Mode turns pilot input and vehicle state into a target body rate and a
// throttle fraction for one control tick.
type Mode interface {
	// Compute returns the target rate and throttle for this tick.
	Compute(in flight.Input, st flight.State, dt float64) flight.Output

	// Reset clears the state of every loop owned by the mode. It is called
	// each time the mode becomes active.
	Reset()

	// Name is the display name of the mode.
	Name() string

	// Mixing is the saturation strategy the mixer uses while this mode is active.
	Mixing() flight.MixingStrategy
}

// Limits are the vehicle characteristics the modes scale stick input by.
type Limits struct {
	MaxRate       float64 // deg/s, acro body rate at full stick
	MaxTilt       float64 // degrees
	MaxYawRate    float64 // deg/s
	MaxClimbSpeed float64 // m/s
	MaxSpeed      float64 // m/s, horizontal
	HoverThrottle float64 // [0, 1]
}

func (l *Limits) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"maxRate", l.MaxRate},
		{"maxTilt", l.MaxTilt},
		{"maxYawRate", l.MaxYawRate},
		{"maxClimbSpeed", l.MaxClimbSpeed},
		{"maxSpeed", l.MaxSpeed},
	} {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return fmt.Errorf("mode.Limits: %s must be positive and finite: %v given", f.name, f.value)
		}
	}
	if l.MaxTilt >= 90 {
		return fmt.Errorf("mode.Limits: maxTilt must be below 90 degrees: %v given", l.MaxTilt)
	}
	if !(l.HoverThrottle >= 0 && l.HoverThrottle <= 1) {
		return fmt.Errorf("mode.Limits: hoverThrottle must be within [0, 1]: %v given", l.HoverThrottle)
	}
	return nil
}

// Gains are the loop tunings a mode needs to build its cascades.
type Gains struct {
	AnglePitch pid.Config
	AngleRoll  pid.Config
	Altitude   pid.Config
	Velocity   pid.Config
}

// Kind identifies a mode variant.
type Kind string

const (
	KindRate     Kind = "rate"
	KindAngle    Kind = "angle"
	KindVelocity Kind = "velocity"
)

// ErrUnknownKind is returned by New for an unrecognised Kind.
var ErrUnknownKind = errors.New("unknown flight mode")

// New builds a fresh mode of the given kind with its own cascades.
func New(kind Kind, limits Limits, gains Gains) (Mode, error) {
	switch kind {
	case KindRate:
		return NewRateMode(limits.MaxRate)
	case KindAngle:
		return NewAngleAltHoldMode(limits, gains)
	case KindVelocity:
		return NewVelocityMode(limits, gains)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
