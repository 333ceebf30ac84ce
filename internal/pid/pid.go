package pid

import (
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/flight-control/internal/flight"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid PID config")

// Config holds the tuning of a single PID loop. It is loaded once and shared
// read-only by every Controller built from it.
type Config struct {
	Kp float64 `yaml:"kp" json:"kp"` // Proportional gain
	Ki float64 `yaml:"ki" json:"ki"` // Integral gain
	Kd float64 `yaml:"kd" json:"kd"` // Derivative gain

	MaxOutput          float64 `yaml:"maxOutput" json:"maxOutput"`                   // Output is clamped to ±MaxOutput
	IntegralSaturation float64 `yaml:"integralSaturation" json:"integralSaturation"` // Accumulator is clamped to ±IntegralSaturation
}

// DefaultConfig returns the stock tuning used when a loop is left unconfigured.
func DefaultConfig() Config {
	return Config{
		Kp:                 1.0,
		Ki:                 0.0,
		Kd:                 0.5,
		MaxOutput:          10,
		IntegralSaturation: 10,
	}
}

func (c *Config) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"kp", c.Kp},
		{"ki", c.Ki},
		{"kd", c.Kd},
		{"maxOutput", c.MaxOutput},
		{"integralSaturation", c.IntegralSaturation},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be finite: %v given", ErrInvalidConfig, f.name, f.value)
		}
	}

	if c.MaxOutput <= 0 {
		return fmt.Errorf("%w: maxOutput must be positive: %v given", ErrInvalidConfig, c.MaxOutput)
	}
	if c.IntegralSaturation < 0 {
		return fmt.Errorf("%w: integralSaturation cannot be negative: %v given", ErrInvalidConfig, c.IntegralSaturation)
	}

	return nil
}

// Controller is the mutable state of one PID loop on one axis.
type Controller struct {
	config *Config

	integral  float64
	prevError float64
}

// New creates a Controller bound to config. The config is validated here so
// that a bad tuning fails at construction and never mid-flight.
func New(config *Config) (*Controller, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is required", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Controller{config: config}, nil
}

// Compute advances the loop by dt seconds for the given error and returns the
// clamped control output.
//
// A non-positive dt is treated as a proportional-only tick: the integral is
// left untouched and the derivative term is zero.
func (c *Controller) Compute(err, dt float64) float64 {
	p := err * c.config.Kp

	validStep := dt > 0 // false for NaN as well

	if validStep {
		c.integral += err * dt
		c.integral = flight.ClampAbs(c.integral, c.config.IntegralSaturation)
	}
	i := c.integral * c.config.Ki

	var d float64
	if validStep {
		d = (err - c.prevError) * c.config.Kd / dt
	}
	c.prevError = err

	return flight.ClampAbs(p+i+d, c.config.MaxOutput)
}

// Reset clears the accumulated integral and the error history. It must be
// called whenever the loop's operating context changes discontinuously.
func (c *Controller) Reset() {
	c.integral = 0
	c.prevError = 0
}

// State returns the accumulated integral and the last error seen.
func (c *Controller) State() (integral, prevError float64) {
	return c.integral, c.prevError
}

// Config returns the tuning the controller was built with.
func (c *Controller) Config() Config {
	return *c.config
}
