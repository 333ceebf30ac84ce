package mode

import (
	"fmt"
	"math"

	"github.com/roman-kulish/flight-control/internal/flight"
)

// RateMode (acro) maps sticks straight to body rates. Throttle is manual and
// bypasses the altitude loop.
type RateMode struct {
	maxRate float64
}

func NewRateMode(maxRate float64) (*RateMode, error) {
	if !(maxRate > 0) || math.IsInf(maxRate, 0) {
		return nil, fmt.Errorf("rate mode: max rate must be positive: %v given", maxRate)
	}
	return &RateMode{maxRate: maxRate}, nil
}

func (m *RateMode) Compute(in flight.Input, _ flight.State, _ float64) flight.Output {
	return flight.Output{
		TargetRate: flight.Vec3{
			X: in.Cyclic.Y * m.maxRate,
			Y: in.Yaw * m.maxRate,
			Z: -in.Cyclic.X * m.maxRate,
		},
		Throttle: flight.Clamp01(in.Throttle),
	}
}

// Reset is a no-op: rate mode keeps no loop state of its own.
func (m *RateMode) Reset() {}

func (m *RateMode) Name() string { return RateModeName }

func (m *RateMode) Mixing() flight.MixingStrategy { return flight.PrioritizeAttitude }
