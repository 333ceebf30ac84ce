package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/flight-control/internal/control"
	"github.com/roman-kulish/flight-control/internal/scenario"
)

const (
	defaultDT            = 10 * time.Millisecond
	defaultDataDirectory = "data"
	defaultMaxBatchSize  = 500
	defaultTelemetryAddr = ":8080"
	defaultEveryNthTick  = 5
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the main application configuration
type Config struct {
	Settings   Settings         `yaml:"settings"`
	Controller control.Config   `yaml:"controller"`
	Simulation SimulationConfig `yaml:"simulation"`
	Storage    StorageConfig    `yaml:"storage"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel slog.Level `yaml:"logLevel"`
}

// SimulationConfig represents the scenario replay settings
type SimulationConfig struct {
	DT       scenario.Duration `yaml:"dt"`       // control tick interval
	Scenario string            `yaml:"scenario"` // relative to the configuration file
	Realtime bool              `yaml:"realtime"` // pace ticks on the wall clock
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	MaxBatchSize  int    `yaml:"maxBatchSize"`
}

// TelemetryConfig represents the live telemetry server settings
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Addr         string `yaml:"addr"`
	EveryNthTick int    `yaml:"everyNthTick"`
}

// DefaultConfig returns the configuration every loaded file is applied on top of.
func DefaultConfig() *Config {
	return &Config{
		Settings:   Settings{LogLevel: slog.LevelInfo},
		Controller: control.DefaultConfig(),
		Simulation: SimulationConfig{DT: scenario.Duration(defaultDT)},
		Storage: StorageConfig{
			DataDirectory: defaultDataDirectory,
			MaxBatchSize:  defaultMaxBatchSize,
		},
		Telemetry: TelemetryConfig{
			Addr:         defaultTelemetryAddr,
			EveryNthTick: defaultEveryNthTick,
		},
	}
}

// LoadConfig reads and validates the YAML configuration at path. Relative
// scenario paths are resolved against the configuration file directory.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	config := DefaultConfig()
	if err = yaml.NewDecoder(f).Decode(config); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	if s := config.Simulation.Scenario; s != "" && !filepath.IsAbs(s) {
		config.Simulation.Scenario = filepath.Join(filepath.Dir(path), s)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if err := c.Controller.Validate(); err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	switch {
	case c.Simulation.DT <= 0:
		return fmt.Errorf("%w: simulation.dt must be positive: %s given", ErrInvalidConfig, c.Simulation.DT)
	case c.Simulation.Scenario == "":
		return fmt.Errorf("%w: simulation.scenario is required", ErrInvalidConfig)
	case c.Storage.MaxBatchSize <= 0:
		return fmt.Errorf("%w: storage.maxBatchSize must be positive: %d given", ErrInvalidConfig, c.Storage.MaxBatchSize)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Addr == "" {
			return fmt.Errorf("%w: telemetry.addr is required", ErrInvalidConfig)
		}
		if c.Telemetry.EveryNthTick <= 0 {
			return fmt.Errorf("%w: telemetry.everyNthTick must be positive: %d given", ErrInvalidConfig, c.Telemetry.EveryNthTick)
		}
	}
	return nil
}
