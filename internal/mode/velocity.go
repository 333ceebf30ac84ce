package mode

import (
	"fmt"

	"github.com/roman-kulish/flight-control/internal/cascade"
	"github.com/roman-kulish/flight-control/internal/flight"
)

// VelocityMode maps the cyclic stick to a horizontal velocity and lets the
// velocity and angle loops produce the tilt needed to hold it.
type VelocityMode struct {
	velocity *cascade.VelocityToAngleController
	angle    *cascade.AngleToRateController
	altitude *cascade.AltitudeController

	maxSpeed   float64
	maxYawRate float64
}

func NewVelocityMode(limits Limits, gains Gains) (*VelocityMode, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	velocity, err := cascade.NewVelocityToAngleController(&gains.Velocity, limits.MaxTilt)
	if err != nil {
		return nil, fmt.Errorf("velocity mode: %w", err)
	}

	angle, err := cascade.NewAngleToRateController(&gains.AnglePitch, &gains.AngleRoll)
	if err != nil {
		return nil, fmt.Errorf("velocity mode: %w", err)
	}

	altitude, err := cascade.NewAltitudeController(&gains.Altitude, limits.MaxClimbSpeed, limits.HoverThrottle)
	if err != nil {
		return nil, fmt.Errorf("velocity mode: %w", err)
	}

	return &VelocityMode{
		velocity:   velocity,
		angle:      angle,
		altitude:   altitude,
		maxSpeed:   limits.MaxSpeed,
		maxYawRate: limits.MaxYawRate,
	}, nil
}

func (m *VelocityMode) Compute(in flight.Input, st flight.State, dt float64) flight.Output {
	targetVelocity := in.Cyclic.Mul(m.maxSpeed)
	currentVelocity := flight.Vec2{X: st.Velocity.X, Y: st.Velocity.Z}

	targetAngles := m.velocity.TargetAngles(targetVelocity, currentVelocity, dt)
	rates := m.angle.TargetRates(targetAngles, st.Rotation, dt)

	return flight.Output{
		TargetRate: flight.Vec3{X: rates.X, Y: in.Yaw * m.maxYawRate, Z: rates.Y},
		Throttle:   m.altitude.Throttle(in.Throttle, st.VerticalVelocity, dt),
	}
}

func (m *VelocityMode) Reset() {
	m.velocity.Reset()
	m.angle.Reset()
	m.altitude.Reset()
}

func (m *VelocityMode) Name() string { return VelocityModeName }

func (m *VelocityMode) Mixing() flight.MixingStrategy { return flight.PrioritizeThrottle }
