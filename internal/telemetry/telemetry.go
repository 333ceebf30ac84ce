package telemetry

import (
	"time"

	"github.com/roman-kulish/flight-control/internal/control"
	"github.com/roman-kulish/flight-control/internal/flight"
	"github.com/roman-kulish/flight-control/internal/mixer"
)

// Record is the telemetry of one control tick: what went into the
// controller, what each stage produced, and the resulting motor forces.
type Record struct {
	Tick    int64         `json:"tick"`
	Elapsed time.Duration `json:"elapsed"` // since session start
	Mode    string        `json:"mode"`

	Input flight.Input `json:"input"`
	State flight.State `json:"state"`

	TargetRate flight.Vec3 `json:"targetRate"` // deg/s, mode output
	Throttle   float64     `json:"throttle"`   // mode output, [0, 1]
	Correction flight.Vec3 `json:"correction"` // rate loop output

	Collective float64           `json:"collective"` // effective throttle force per motor in N
	Forces     mixer.MotorForces `json:"forces"`     // N, FL, FR, BL, BR
	Load       [4]float64        `json:"load"`       // Forces as a fraction of the motor maximum
	Saturated  mixer.Saturation  `json:"saturated,omitempty"`

	ModeChange *ModeChange `json:"modeChange,omitempty"`
}

// ModeChange is a flight mode transition as logged and broadcast.
type ModeChange struct {
	Tick     int64         `json:"tick"`
	Elapsed  time.Duration `json:"elapsed"`
	Mode     string        `json:"mode"`
	Previous string        `json:"previous"`
}

// NewRecord assembles the telemetry of one tick from the controller's inputs
// and result.
func NewRecord(tick int64, elapsed time.Duration, in flight.Input, st flight.State, res *control.TickResult, maxMotorForce float64) *Record {
	r := Record{
		Tick:       tick,
		Elapsed:    elapsed,
		Mode:       res.Mode,
		Input:      in,
		State:      st,
		TargetRate: res.Output.TargetRate,
		Throttle:   res.Output.Throttle,
		Correction: res.Correction,
		Collective: res.Allocation.Throttle,
		Forces:     res.Allocation.Forces,
		Load:       res.Allocation.Forces.Load(maxMotorForce),
		Saturated:  res.Allocation.Saturated,
	}

	if res.ModeChange != nil {
		r.ModeChange = &ModeChange{
			Tick:     tick,
			Elapsed:  elapsed,
			Mode:     res.ModeChange.Mode,
			Previous: res.ModeChange.Previous,
		}
	}

	return &r
}
