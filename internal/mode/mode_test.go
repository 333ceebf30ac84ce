package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flight-control/internal/flight"
	"github.com/roman-kulish/flight-control/internal/pid"
)

var testLimits = Limits{
	MaxRate:       90,
	MaxTilt:       30,
	MaxYawRate:    180,
	MaxClimbSpeed: 5,
	MaxSpeed:      10,
	HoverThrottle: 0.3,
}

func unityGains() Gains {
	unity := pid.Config{Kp: 1, MaxOutput: 1000, IntegralSaturation: 10}
	return Gains{
		AnglePitch: unity,
		AngleRoll:  unity,
		Altitude:   pid.Config{Kp: 0.1, MaxOutput: 1},
		Velocity:   unity,
	}
}

func tunedGains() Gains {
	return Gains{
		AnglePitch: pid.Config{Kp: 4, Ki: 0.5, Kd: 0.2, MaxOutput: 200, IntegralSaturation: 20},
		AngleRoll:  pid.Config{Kp: 4, Ki: 0.5, Kd: 0.2, MaxOutput: 200, IntegralSaturation: 20},
		Altitude:   pid.Config{Kp: 0.2, Ki: 0.1, Kd: 0.05, MaxOutput: 0.7, IntegralSaturation: 2},
		Velocity:   pid.Config{Kp: 3, Ki: 0.3, Kd: 0.1, MaxOutput: 45, IntegralSaturation: 10},
	}
}

func TestRateModeEndToEnd(t *testing.T) {
	m, err := NewRateMode(90)
	require.NoError(t, err)

	out := m.Compute(flight.Input{Cyclic: flight.Vec2{X: 0, Y: 1}, Yaw: 0, Throttle: 0.5}, flight.State{}, 0.01)
	assert.Equal(t, flight.Vec3{X: 90, Y: 0, Z: 0}, out.TargetRate)
	assert.Equal(t, 0.5, out.Throttle)
}

func TestRateModeScalingAndThrottleClamp(t *testing.T) {
	m, err := NewRateMode(200)
	require.NoError(t, err)

	out := m.Compute(flight.Input{Cyclic: flight.Vec2{X: 0.5, Y: -0.25}, Yaw: 1, Throttle: 1.7}, flight.State{}, 0.01)
	assert.Equal(t, flight.Vec3{X: -50, Y: 200, Z: -100}, out.TargetRate)
	assert.Equal(t, 1.0, out.Throttle)

	out = m.Compute(flight.Input{Throttle: -0.4}, flight.State{}, 0.01)
	assert.Equal(t, 0.0, out.Throttle)
}

func TestRateModeIgnoresState(t *testing.T) {
	m, _ := NewRateMode(90)
	in := flight.Input{Cyclic: flight.Vec2{X: 0.3, Y: 0.6}, Yaw: -0.2, Throttle: 0.4}

	a := m.Compute(in, flight.State{}, 0.01)
	b := m.Compute(in, flight.State{Rotation: flight.Vec3{X: 40}, VerticalVelocity: -3}, 0.01)
	assert.Equal(t, a, b, "acro throttle bypasses the altitude loop")
}

func TestAngleAltHoldMode(t *testing.T) {
	m, err := NewAngleAltHoldMode(testLimits, unityGains())
	require.NoError(t, err)

	in := flight.Input{Cyclic: flight.Vec2{X: 0.5, Y: -0.5}, Yaw: 0.5, Throttle: 0.2}
	st := flight.State{Rotation: flight.Vec3{X: 5, Z: 2}}

	out := m.Compute(in, st, 0.01)
	assert.Equal(t, flight.Vec3{X: -20, Y: 90, Z: -17}, out.TargetRate)
	assert.InDelta(t, 0.4, out.Throttle, 1e-12)
}

func TestVelocityMode(t *testing.T) {
	m, err := NewVelocityMode(testLimits, unityGains())
	require.NoError(t, err)

	in := flight.Input{Cyclic: flight.Vec2{X: 0.1, Y: 0.2}, Yaw: -1, Throttle: 0}
	st := flight.State{Velocity: flight.Vec3{X: 0.5, Y: 7, Z: 1}}

	out := m.Compute(in, st, 0.01)
	assert.InDelta(t, 1.0, out.TargetRate.X, 1e-12)
	assert.Equal(t, -180.0, out.TargetRate.Y)
	assert.InDelta(t, -0.5, out.TargetRate.Z, 1e-12)
	assert.InDelta(t, 0.3, out.Throttle, 1e-12)
}

func TestStaticProperties(t *testing.T) {
	for _, tt := range []struct {
		kind   Kind
		name   string
		mixing flight.MixingStrategy
	}{
		{KindRate, RateModeName, flight.PrioritizeAttitude},
		{KindAngle, AngleModeName, flight.PrioritizeThrottle},
		{KindVelocity, VelocityModeName, flight.PrioritizeThrottle},
	} {
		m, err := New(tt.kind, testLimits, unityGains())
		require.NoError(t, err)
		assert.Equal(t, tt.name, m.Name())
		assert.Equal(t, tt.mixing, m.Mixing())
	}

	_, err := New("hover", testLimits, unityGains())
	assert.ErrorIs(t, err, ErrUnknownKind)
}

// After Reset a mode must behave exactly like a freshly built one.
func TestResetMatchesFreshMode(t *testing.T) {
	st := flight.State{
		Rotation:         flight.Vec3{X: 3, Y: 45, Z: -2},
		Velocity:         flight.Vec3{X: 0.4, Z: 1.2},
		VerticalVelocity: 0.3,
	}
	in := flight.Input{Cyclic: flight.Vec2{X: 0.2, Y: -0.4}, Yaw: 0.1, Throttle: 0.6}

	for _, kind := range []Kind{KindRate, KindAngle, KindVelocity} {
		t.Run(string(kind), func(t *testing.T) {
			used, err := New(kind, testLimits, tunedGains())
			require.NoError(t, err)
			for i := 0; i < 50; i++ {
				used.Compute(flight.Input{Cyclic: flight.Vec2{X: 1, Y: 1}, Throttle: 1}, flight.State{VerticalVelocity: -float64(i)}, 0.01)
			}
			used.Reset()

			fresh, err := New(kind, testLimits, tunedGains())
			require.NoError(t, err)

			assert.Equal(t, fresh.Compute(in, st, 0.01), used.Compute(in, st, 0.01))
		})
	}
}

func TestLimitsValidate(t *testing.T) {
	l := testLimits
	assert.NoError(t, l.Validate())

	bad := testLimits
	bad.MaxTilt = 95
	assert.Error(t, bad.Validate())

	bad = testLimits
	bad.MaxSpeed = 0
	assert.Error(t, bad.Validate())

	bad = testLimits
	bad.HoverThrottle = -0.1
	assert.Error(t, bad.Validate())

	_, err := NewAngleAltHoldMode(bad, unityGains())
	assert.Error(t, err)

	_, err = NewRateMode(0)
	assert.Error(t, err)
}
