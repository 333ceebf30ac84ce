package control

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roman-kulish/flight-control/internal/mixer"
	"github.com/roman-kulish/flight-control/internal/mode"
	"github.com/roman-kulish/flight-control/internal/pid"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid flight controller config")

// Config represents the flight controller configuration
type Config struct {
	Vehicle VehicleConfig `yaml:"vehicle" json:"vehicle"`
	Gains   GainsConfig   `yaml:"gains" json:"gains"`

	// Modes lists the flight modes in the order the mode switch cycles
	// through them. The first one is active after construction.
	Modes []mode.Kind `yaml:"modes" json:"modes"`
}

// VehicleConfig represents airframe characteristics and stick limits
type VehicleConfig struct {
	Mass                float64 `yaml:"mass" json:"mass"`                               // kg
	ThrustToWeightRatio float64 `yaml:"thrustToWeightRatio" json:"thrustToWeightRatio"` // total max thrust / weight
	IdleThrottle        float64 `yaml:"idleThrottle" json:"idleThrottle"`               // [0, 1]
	HoverThrottle       float64 `yaml:"hoverThrottle" json:"hoverThrottle"`             // [0, 1]

	MaxRate       float64 `yaml:"maxRate" json:"maxRate"`             // deg/s, acro
	MaxTilt       float64 `yaml:"maxTilt" json:"maxTilt"`             // degrees
	MaxYawRate    float64 `yaml:"maxYawRate" json:"maxYawRate"`       // deg/s
	MaxClimbSpeed float64 `yaml:"maxClimbSpeed" json:"maxClimbSpeed"` // m/s
	MaxSpeed      float64 `yaml:"maxSpeed" json:"maxSpeed"`           // m/s, horizontal
}

// GainsConfig represents the PID tuning of every loop
type GainsConfig struct {
	RatePitch  pid.Config `yaml:"ratePitch" json:"ratePitch"`
	RateYaw    pid.Config `yaml:"rateYaw" json:"rateYaw"`
	RateRoll   pid.Config `yaml:"rateRoll" json:"rateRoll"`
	AnglePitch pid.Config `yaml:"anglePitch" json:"anglePitch"`
	AngleRoll  pid.Config `yaml:"angleRoll" json:"angleRoll"`
	Altitude   pid.Config `yaml:"altitude" json:"altitude"`
	Velocity   pid.Config `yaml:"velocity" json:"velocity"`
}

// DefaultModes is the mode cycle used when none is configured.
var DefaultModes = []mode.Kind{mode.KindRate, mode.KindAngle, mode.KindVelocity}

// DefaultConfig returns a 1 kg quad with stock limits and the default PID
// tuning on every loop.
func DefaultConfig() Config {
	gains := pid.DefaultConfig()

	return Config{
		Vehicle: VehicleConfig{
			Mass:                1.0,
			ThrustToWeightRatio: 2.0,
			IdleThrottle:        0.05,
			HoverThrottle:       0.3,
			MaxRate:             180,
			MaxTilt:             30,
			MaxYawRate:          180,
			MaxClimbSpeed:       5,
			MaxSpeed:            10,
		},
		Gains: GainsConfig{
			RatePitch:  gains,
			RateYaw:    gains,
			RateRoll:   gains,
			AnglePitch: gains,
			AngleRoll:  gains,
			Altitude:   gains,
			Velocity:   gains,
		},
		Modes: slices.Clone(DefaultModes),
	}
}

// Validate checks the whole configuration. All returned errors wrap
// ErrInvalidConfig.
func (c *Config) Validate() error {
	mc := c.mixerConfig()
	if err := mc.Validate(); err != nil {
		return fmt.Errorf("%w: vehicle: %w", ErrInvalidConfig, err)
	}

	limits := c.limits()
	if err := limits.Validate(); err != nil {
		return fmt.Errorf("%w: vehicle: %w", ErrInvalidConfig, err)
	}

	for _, g := range []struct {
		name   string
		config *pid.Config
	}{
		{"ratePitch", &c.Gains.RatePitch},
		{"rateYaw", &c.Gains.RateYaw},
		{"rateRoll", &c.Gains.RateRoll},
		{"anglePitch", &c.Gains.AnglePitch},
		{"angleRoll", &c.Gains.AngleRoll},
		{"altitude", &c.Gains.Altitude},
		{"velocity", &c.Gains.Velocity},
	} {
		if err := g.config.Validate(); err != nil {
			return fmt.Errorf("%w: gains.%s: %w", ErrInvalidConfig, g.name, err)
		}
	}

	seen := make(map[mode.Kind]bool, len(c.Modes))
	for _, kind := range c.Modes {
		switch kind {
		case mode.KindRate, mode.KindAngle, mode.KindVelocity:
		default:
			return fmt.Errorf("%w: modes: %w: %q", ErrInvalidConfig, mode.ErrUnknownKind, kind)
		}
		if seen[kind] {
			return fmt.Errorf("%w: modes: %q listed more than once", ErrInvalidConfig, kind)
		}
		seen[kind] = true
	}

	return nil
}

func (c *Config) modes() []mode.Kind {
	if len(c.Modes) == 0 {
		return DefaultModes
	}
	return c.Modes
}

func (c *Config) mixerConfig() mixer.Config {
	return mixer.Config{
		Mass:                c.Vehicle.Mass,
		ThrustToWeightRatio: c.Vehicle.ThrustToWeightRatio,
		IdleThrottle:        c.Vehicle.IdleThrottle,
	}
}

func (c *Config) limits() mode.Limits {
	return mode.Limits{
		MaxRate:       c.Vehicle.MaxRate,
		MaxTilt:       c.Vehicle.MaxTilt,
		MaxYawRate:    c.Vehicle.MaxYawRate,
		MaxClimbSpeed: c.Vehicle.MaxClimbSpeed,
		MaxSpeed:      c.Vehicle.MaxSpeed,
		HoverThrottle: c.Vehicle.HoverThrottle,
	}
}

func (c *Config) modeGains() mode.Gains {
	return mode.Gains{
		AnglePitch: c.Gains.AnglePitch,
		AngleRoll:  c.Gains.AngleRoll,
		Altitude:   c.Gains.Altitude,
		Velocity:   c.Gains.Velocity,
	}
}
