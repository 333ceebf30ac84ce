package cascade

import (
	"fmt"

	"github.com/roman-kulish/flight-control/internal/flight"
	"github.com/roman-kulish/flight-control/internal/pid"
)

// RateController is the innermost loop: it turns body-rate errors into
// pitch, yaw and roll corrections for the mixer.
type RateController struct {
	pitch *pid.Controller
	yaw   *pid.Controller
	roll  *pid.Controller
}

func NewRateController(pitch, yaw, roll *pid.Config) (*RateController, error) {
	var rc RateController
	var err error

	if rc.pitch, err = pid.New(pitch); err != nil {
		return nil, fmt.Errorf("rate pitch: %w", err)
	}
	if rc.yaw, err = pid.New(yaw); err != nil {
		return nil, fmt.Errorf("rate yaw: %w", err)
	}
	if rc.roll, err = pid.New(roll); err != nil {
		return nil, fmt.Errorf("rate roll: %w", err)
	}

	return &rc, nil
}

// Corrections returns the per-axis correction (X pitch, Y yaw, Z roll) for the
// given target and measured body rates in deg/s.
func (rc *RateController) Corrections(target, current flight.Vec3, dt float64) flight.Vec3 {
	return flight.Vec3{
		X: rc.pitch.Compute(target.X-current.X, dt),
		Y: rc.yaw.Compute(target.Y-current.Y, dt),
		Z: rc.roll.Compute(target.Z-current.Z, dt),
	}
}

func (rc *RateController) Reset() {
	rc.pitch.Reset()
	rc.yaw.Reset()
	rc.roll.Reset()
}
