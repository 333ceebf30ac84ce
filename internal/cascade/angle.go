package cascade

import (
	"fmt"

	"github.com/roman-kulish/flight-control/internal/flight"
	"github.com/roman-kulish/flight-control/internal/pid"
)

// AngleToRateController turns a target tilt into target pitch and roll rates.
type AngleToRateController struct {
	pitch *pid.Controller
	roll  *pid.Controller
}

func NewAngleToRateController(pitch, roll *pid.Config) (*AngleToRateController, error) {
	var ac AngleToRateController
	var err error

	if ac.pitch, err = pid.New(pitch); err != nil {
		return nil, fmt.Errorf("angle pitch: %w", err)
	}
	if ac.roll, err = pid.New(roll); err != nil {
		return nil, fmt.Errorf("angle roll: %w", err)
	}

	return &ac, nil
}

// TargetRates takes target angles in degrees (X roll, Y pitch, stick layout)
// and the current rotation, and returns target rates with X pitch and Y roll.
//
// The roll error is -target.X - rotation.Z: a positive roll stick means a
// negative body roll angle.
func (ac *AngleToRateController) TargetRates(target flight.Vec2, rotation flight.Vec3, dt float64) flight.Vec2 {
	pitchRate := ac.pitch.Compute(target.Y-rotation.X, dt)
	rollRate := ac.roll.Compute(-target.X-rotation.Z, dt)

	return flight.Vec2{X: pitchRate, Y: rollRate}
}

func (ac *AngleToRateController) Reset() {
	ac.pitch.Reset()
	ac.roll.Reset()
}
