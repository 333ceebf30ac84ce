package control

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roman-kulish/flight-control/internal/cascade"
	"github.com/roman-kulish/flight-control/internal/flight"
	"github.com/roman-kulish/flight-control/internal/mixer"
	"github.com/roman-kulish/flight-control/internal/mode"
)

// ModeChange is reported on the tick the active mode changed.
type ModeChange struct {
	Mode     string // name of the mode that became active
	Previous string // name of the mode that was active before
}

// TickResult is everything one control tick produced.
type TickResult struct {
	Mode       string      // name of the mode that computed this tick
	Output     flight.Output
	Correction flight.Vec3 // rate loop output before mixing
	Allocation mixer.Allocation
	ModeChange *ModeChange // nil unless the mode switched on this tick
}

// Forces are the motor forces of the tick, ordered FL, FR, BL, BR.
func (r *TickResult) Forces() mixer.MotorForces {
	return r.Allocation.Forces
}

// WithLogger sets the logger mode transitions are reported to.
func WithLogger(logger *slog.Logger) func(*FlightController) {
	return func(fc *FlightController) {
		fc.logger = logger
	}
}

// FlightController runs the mode, rate loop and mixer pipeline once per
// control tick. It is not safe for concurrent use.
type FlightController struct {
	config Config

	modes  []mode.Mode
	active int

	rate  *cascade.RateController
	mixer *mixer.Mixer

	logger *slog.Logger
}

// New validates the configuration and builds a controller with the first
// configured mode active.
func New(config Config, options ...func(*FlightController)) (*FlightController, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	fc := FlightController{
		config: config,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&fc)
	}

	var err error
	if fc.mixer, err = mixer.New(fc.config.mixerConfig()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	g := &fc.config.Gains
	if fc.rate, err = cascade.NewRateController(&g.RatePitch, &g.RateYaw, &g.RateRoll); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	limits := fc.config.limits()
	gains := fc.config.modeGains()
	for _, kind := range fc.config.modes() {
		m, err := mode.New(kind, limits, gains)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		fc.modes = append(fc.modes, m)
	}

	fc.current().Reset()
	fc.rate.Reset()

	return &fc, nil
}

// Tick runs one control cycle. A mode switch request is handled before the
// active mode computes, so the newly selected mode flies this tick.
func (fc *FlightController) Tick(in flight.Input, st flight.State, dt float64) TickResult {
	in = in.Sanitize()
	st = st.Sanitize()
	dt = flight.SanitizeFinite(dt)

	var change *ModeChange
	if in.ModeSwitch {
		change = fc.cycle()
	}

	m := fc.current()
	out := m.Compute(in, st, dt)
	corr := fc.rate.Corrections(out.TargetRate, st.AngularVelocity, dt)
	alloc := fc.mixer.Allocate(out.Throttle, corr, m.Mixing())

	return TickResult{
		Mode:       m.Name(),
		Output:     out,
		Correction: corr,
		Allocation: alloc,
		ModeChange: change,
	}
}

// Mode returns the name of the active mode.
func (fc *FlightController) Mode() string {
	return fc.current().Name()
}

// Modes returns the names of all modes in cycle order.
func (fc *FlightController) Modes() []string {
	names := make([]string, len(fc.modes))
	for i, m := range fc.modes {
		names[i] = m.Name()
	}
	return names
}

// MaxMotorForce is the upper bound of every motor force Tick returns.
func (fc *FlightController) MaxMotorForce() float64 {
	return fc.mixer.MaxMotorForce()
}

// Config returns a copy of the configuration the controller was built with.
func (fc *FlightController) Config() Config {
	return fc.config
}

func (fc *FlightController) current() mode.Mode {
	return fc.modes[fc.active]
}

func (fc *FlightController) cycle() *ModeChange {
	prev := fc.current()
	fc.active = (fc.active + 1) % len(fc.modes)
	next := fc.current()

	next.Reset()
	fc.rate.Reset()

	fc.logger.Info("flight mode changed",
		slog.String("mode", next.Name()),
		slog.String("previous", prev.Name()))

	return &ModeChange{Mode: next.Name(), Previous: prev.Name()}
}
