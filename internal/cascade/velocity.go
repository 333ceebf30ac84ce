package cascade

import (
	"fmt"
	"math"

	"github.com/roman-kulish/flight-control/internal/flight"
	"github.com/roman-kulish/flight-control/internal/pid"
)

// VelocityToAngleController turns a horizontal velocity target into tilt
// angles. Both axes share one tuning but keep separate loop state.
type VelocityToAngleController struct {
	forward *pid.Controller // pitch axis, velocity Y
	lateral *pid.Controller // roll axis, velocity X
	maxTilt float64
}

func NewVelocityToAngleController(config *pid.Config, maxTilt float64) (*VelocityToAngleController, error) {
	if !(maxTilt > 0) || math.IsInf(maxTilt, 0) {
		return nil, fmt.Errorf("velocity: max tilt must be positive: %v given", maxTilt)
	}

	vc := VelocityToAngleController{maxTilt: maxTilt}
	var err error

	if vc.forward, err = pid.New(config); err != nil {
		return nil, fmt.Errorf("velocity forward: %w", err)
	}
	if vc.lateral, err = pid.New(config); err != nil {
		return nil, fmt.Errorf("velocity lateral: %w", err)
	}

	return &vc, nil
}

// TargetAngles returns target tilt angles (X roll, Y pitch) in degrees for the
// target and current horizontal velocities (X lateral, Y forward) in m/s.
// Each angle is clamped to ±maxTilt after the loop's own output limit.
func (vc *VelocityToAngleController) TargetAngles(target, current flight.Vec2, dt float64) flight.Vec2 {
	pitchAngle := -vc.forward.Compute(current.Y-target.Y, dt)
	rollAngle := vc.lateral.Compute(target.X-current.X, dt)

	return flight.Vec2{
		X: flight.ClampAbs(rollAngle, vc.maxTilt),
		Y: flight.ClampAbs(pitchAngle, vc.maxTilt),
	}
}

func (vc *VelocityToAngleController) Reset() {
	vc.forward.Reset()
	vc.lateral.Reset()
}
