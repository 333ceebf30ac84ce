package mode

import (
	"fmt"

	"github.com/roman-kulish/flight-control/internal/cascade"
	"github.com/roman-kulish/flight-control/internal/flight"
)

// AngleAltHoldMode maps the cyclic stick to tilt angles and the throttle
// stick to a climb rate.
type AngleAltHoldMode struct {
	angle    *cascade.AngleToRateController
	altitude *cascade.AltitudeController

	maxTilt    float64
	maxYawRate float64
}

func NewAngleAltHoldMode(limits Limits, gains Gains) (*AngleAltHoldMode, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	angle, err := cascade.NewAngleToRateController(&gains.AnglePitch, &gains.AngleRoll)
	if err != nil {
		return nil, fmt.Errorf("angle mode: %w", err)
	}

	altitude, err := cascade.NewAltitudeController(&gains.Altitude, limits.MaxClimbSpeed, limits.HoverThrottle)
	if err != nil {
		return nil, fmt.Errorf("angle mode: %w", err)
	}

	return &AngleAltHoldMode{
		angle:      angle,
		altitude:   altitude,
		maxTilt:    limits.MaxTilt,
		maxYawRate: limits.MaxYawRate,
	}, nil
}

func (m *AngleAltHoldMode) Compute(in flight.Input, st flight.State, dt float64) flight.Output {
	targetAngles := in.Cyclic.Mul(m.maxTilt)
	rates := m.angle.TargetRates(targetAngles, st.Rotation, dt)

	return flight.Output{
		TargetRate: flight.Vec3{X: rates.X, Y: in.Yaw * m.maxYawRate, Z: rates.Y},
		Throttle:   m.altitude.Throttle(in.Throttle, st.VerticalVelocity, dt),
	}
}

func (m *AngleAltHoldMode) Reset() {
	m.angle.Reset()
	m.altitude.Reset()
}

func (m *AngleAltHoldMode) Name() string { return AngleModeName }

func (m *AngleAltHoldMode) Mixing() flight.MixingStrategy { return flight.PrioritizeThrottle }
