package app

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flight-control/internal/control"
	"github.com/roman-kulish/flight-control/internal/mode"
	"github.com/roman-kulish/flight-control/internal/pid"
)

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)

	defaults := control.DefaultConfig()

	assert.Equal(t, slog.LevelDebug, config.Settings.LogLevel)

	v := config.Controller.Vehicle
	assert.Equal(t, 1.2, v.Mass)
	assert.Equal(t, 2.5, v.ThrustToWeightRatio)
	assert.Equal(t, 25.0, v.MaxTilt)
	assert.Equal(t, defaults.Vehicle.MaxRate, v.MaxRate, "unset keys keep their defaults")
	assert.Equal(t, defaults.Vehicle.IdleThrottle, v.IdleThrottle)

	assert.Equal(t, pid.Config{Kp: 0.8, Ki: 0.1, Kd: 0.05, MaxOutput: 10, IntegralSaturation: 5}, config.Controller.Gains.RatePitch)
	assert.Equal(t, defaults.Gains.RateRoll, config.Controller.Gains.RateRoll)
	assert.Equal(t, []mode.Kind{mode.KindAngle, mode.KindRate}, config.Controller.Modes)

	assert.Equal(t, 5*time.Millisecond, config.Simulation.DT.Duration())
	assert.Equal(t, filepath.Join("testdata", "hover.yaml"), config.Simulation.Scenario)
	assert.False(t, config.Simulation.Realtime)

	assert.Equal(t, defaultDataDirectory, config.Storage.DataDirectory)
	assert.Equal(t, 16, config.Storage.MaxBatchSize)

	assert.False(t, config.Telemetry.Enabled)
	assert.Equal(t, defaultTelemetryAddr, config.Telemetry.Addr)
	assert.Equal(t, defaultEveryNthTick, config.Telemetry.EveryNthTick)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join("testdata", "hover.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig, "a scenario file is not a configuration")
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Simulation.Scenario = "scenario.yaml"
		return c
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		modify func(*Config)
		target error
	}{
		{"zero dt", func(c *Config) { c.Simulation.DT = 0 }, ErrInvalidConfig},
		{"no scenario", func(c *Config) { c.Simulation.Scenario = "" }, ErrInvalidConfig},
		{"zero batch", func(c *Config) { c.Storage.MaxBatchSize = 0 }, ErrInvalidConfig},
		{"telemetry without addr", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Addr = ""
		}, ErrInvalidConfig},
		{"telemetry every 0th tick", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.EveryNthTick = 0
		}, ErrInvalidConfig},
		{"controller", func(c *Config) { c.Controller.Vehicle.Mass = 0 }, control.ErrInvalidConfig},
		{"unknown mode", func(c *Config) { c.Controller.Modes = []mode.Kind{"loop"} }, control.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(c)
			assert.ErrorIs(t, c.Validate(), tt.target)
		})
	}

	t.Run("disabled telemetry is not checked", func(t *testing.T) {
		c := valid()
		c.Telemetry.Addr = ""
		c.Telemetry.EveryNthTick = 0
		assert.NoError(t, c.Validate())
	})
}
