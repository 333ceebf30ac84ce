package mixer

import (
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/flight-control/internal/flight"
)

const (
	FrontLeft = iota
	FrontRight
	BackLeft
	BackRight

	NumMotors = 4
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid mixer config")

// MotorForces are thrust magnitudes in newtons ordered front-left,
// front-right, back-left, back-right.
type MotorForces [NumMotors]float64

// Load returns each force as a fraction of maxForce, clamped to [0, 1].
func (f MotorForces) Load(maxForce float64) [NumMotors]float64 {
	var load [NumMotors]float64
	if maxForce <= 0 {
		return load
	}
	for i, force := range f {
		load[i] = flight.Clamp01(force / maxForce)
	}
	return load
}

// Total is the sum of all motor forces.
func (f MotorForces) Total() float64 {
	return f[FrontLeft] + f[FrontRight] + f[BackLeft] + f[BackRight]
}

// Saturation reports which motor limits the mixer had to resolve on a tick.
type Saturation uint8

const (
	SaturatedLow  Saturation = 1 << iota // a motor would have gone below zero
	SaturatedHigh                        // a motor would have exceeded the maximum force
)

func (s Saturation) Low() bool  { return s&SaturatedLow != 0 }
func (s Saturation) High() bool { return s&SaturatedHigh != 0 }

// Config describes the airframe the mixer distributes thrust for.
type Config struct {
	Mass                float64 `yaml:"mass" json:"mass"`                               // kg
	ThrustToWeightRatio float64 `yaml:"thrustToWeightRatio" json:"thrustToWeightRatio"` // total max thrust / weight
	IdleThrottle        float64 `yaml:"idleThrottle" json:"idleThrottle"`               // throttle floor, [0, 1]
}

func (c *Config) Validate() error {
	if !(c.Mass > 0) || math.IsInf(c.Mass, 0) {
		return fmt.Errorf("%w: mass must be positive: %v given", ErrInvalidConfig, c.Mass)
	}
	if !(c.ThrustToWeightRatio > 0) || math.IsInf(c.ThrustToWeightRatio, 0) {
		return fmt.Errorf("%w: thrust to weight ratio must be positive: %v given", ErrInvalidConfig, c.ThrustToWeightRatio)
	}
	if !(c.IdleThrottle >= 0 && c.IdleThrottle <= 1) {
		return fmt.Errorf("%w: idle throttle must be within [0, 1]: %v given", ErrInvalidConfig, c.IdleThrottle)
	}
	return nil
}

// MaxMotorForce is the thrust a single motor produces at full throttle.
func (c *Config) MaxMotorForce() float64 {
	return c.Mass * flight.Gravity * c.ThrustToWeightRatio / NumMotors
}

// Allocation is the full result of one mix: the throttle force and the
// corrections that were actually applied, and the resulting motor forces.
type Allocation struct {
	Throttle   float64     // Effective collective force per motor, N
	Correction flight.Vec3 // Applied pitch (X), yaw (Y), roll (Z) corrections
	Forces     MotorForces
	Saturated  Saturation
}

// Mixer distributes a throttle fraction and rate-loop corrections over the
// four motors of an X quad.
type Mixer struct {
	maxForce     float64
	idleThrottle float64
}

func New(config Config) (*Mixer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Mixer{
		maxForce:     config.MaxMotorForce(),
		idleThrottle: config.IdleThrottle,
	}, nil
}

// MaxMotorForce is the upper bound of every motor force the mixer returns.
func (m *Mixer) MaxMotorForce() float64 {
	return m.maxForce
}

// Mix returns the motor forces for a throttle fraction and a correction
// vector (X pitch, Y yaw, Z roll) under the given strategy.
func (m *Mixer) Mix(throttle float64, correction flight.Vec3, strategy flight.MixingStrategy) MotorForces {
	return m.Allocate(throttle, correction, strategy).Forces
}

// Allocate is Mix with the intermediate throttle force and applied
// corrections exposed.
func (m *Mixer) Allocate(throttle float64, correction flight.Vec3, strategy flight.MixingStrategy) Allocation {
	frac := math.Max(flight.Clamp01(flight.SanitizeFinite(throttle)), m.idleThrottle)
	thr := frac * m.maxForce
	corr := correction.Sanitize()

	var sat Saturation
	offsets := mixOffsets(corr)
	lo, hi := minMax(offsets)

	// low side: the weakest motor would have to push below zero
	if thr+lo < 0 {
		sat |= SaturatedLow
		switch strategy {
		case flight.PrioritizeAttitude:
			thr = -lo
		default:
			k := thr / -lo
			corr = corr.Mul(k)
			weakest := 0
			for i := range offsets {
				offsets[i] *= k
				if offsets[i] < offsets[weakest] {
					weakest = i
				}
			}
			// the weakest motor lands on exactly zero
			offsets[weakest] = -thr
			lo, hi = minMax(offsets)
		}
	}

	// high side: the strongest motor would have to exceed its maximum
	if thr+hi > m.maxForce {
		sat |= SaturatedHigh
		switch strategy {
		case flight.PrioritizeAttitude:
			if spread := hi - lo; spread > m.maxForce {
				corr = corr.Mul(m.maxForce / spread)
				offsets = mixOffsets(corr)
				lo, hi = minMax(offsets)
			}
			thr = m.maxForce - hi
		default:
			if hi > 0 {
				corr = corr.Mul((m.maxForce - thr) / hi)
				offsets = mixOffsets(corr)
			}
		}
	}

	var forces MotorForces
	for i, offset := range offsets {
		forces[i] = flight.Clamp(thr+offset, 0, m.maxForce)
	}

	return Allocation{
		Throttle:   thr,
		Correction: corr,
		Forces:     forces,
		Saturated:  sat,
	}
}

// mixOffsets returns the per-motor offsets from the collective for an X quad.
func mixOffsets(c flight.Vec3) [NumMotors]float64 {
	pitch, yaw, roll := c.X, c.Y, c.Z
	return [NumMotors]float64{
		FrontLeft:  -pitch - roll - yaw,
		FrontRight: -pitch + roll + yaw,
		BackLeft:   pitch - roll + yaw,
		BackRight:  pitch + roll - yaw,
	}
}

func minMax(v [NumMotors]float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}
