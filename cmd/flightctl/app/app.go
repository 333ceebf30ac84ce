package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/flight-control/internal/control"
	"github.com/roman-kulish/flight-control/internal/scenario"
	"github.com/roman-kulish/flight-control/internal/storage"
	"github.com/roman-kulish/flight-control/internal/telemetry"
)

// Run replays the configured scenario through the flight controller,
// recording every tick and optionally streaming telemetry to websocket
// clients.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	scn, err := scenario.Load(config.Simulation.Scenario)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	player, err := scenario.NewPlayer(scn, config.Simulation.DT.Duration())
	if err != nil {
		return fmt.Errorf("failed to create scenario player: %w", err)
	}

	fc, err := control.New(config.Controller, control.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create flight controller: %w", err)
	}

	dbPath, err := storagePath(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}

	store := storage.NewSqliteStore(dbPath)
	defer store.Close()

	rec, err := NewRecorder(ctx, store, storage.SessionMeta{
		Name:          scn.Name,
		Scenario:      config.Simulation.Scenario,
		DT:            player.DT(),
		MaxMotorForce: fc.MaxMotorForce(),
	}, config.Controller, WithMaxBatchSize(config.Storage.MaxBatchSize), WithLogger(logger))
	if err != nil {
		return err
	}

	var server *telemetryServer
	if config.Telemetry.Enabled {
		if server, err = startTelemetryServer(ctx, &config.Telemetry, logger); err != nil {
			return fmt.Errorf("failed to start telemetry server: %w", err)
		}
		defer server.Shutdown()
	}

	logger.Info("flight started",
		slog.Group("scenario",
			slog.String("name", scn.Name),
			slog.Int("segments", len(scn.Segments)),
			slog.Int("ticks", player.Ticks()),
			slog.Duration("duration", scn.Duration()),
		),
		slog.Any("modes", fc.Modes()),
		slog.String("mode", fc.Mode()),
		slog.Float64("maxMotorForce", fc.MaxMotorForce()))

	stats := newFlightStats(fc.MaxMotorForce(), player.DT())
	if err = fly(ctx, config, player, fc, rec, server, stats); err != nil {
		if flushErr := rec.Flush(context.WithoutCancel(ctx)); flushErr != nil {
			err = errors.Join(err, flushErr)
		}
		return err
	}

	if err = rec.Flush(ctx); err != nil {
		return err
	}

	stats.log(logger, rec, dbPath)
	return nil
}

func fly(ctx context.Context, config *Config, player *scenario.Player, fc *control.FlightController, rec *Recorder, server *telemetryServer, stats *flightStats) error {
	var pace <-chan time.Time
	if config.Simulation.Realtime {
		ticker := time.NewTicker(config.Simulation.DT.Duration())
		defer ticker.Stop()
		pace = ticker.C
	}

	for player.Next() {
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		frame := player.Current()
		res := fc.Tick(frame.Input, frame.State, player.DT())
		r := telemetry.NewRecord(int64(frame.Tick), frame.Time, frame.Input, frame.State, &res, fc.MaxMotorForce())

		stats.update(r)
		if err := rec.Record(ctx, r); err != nil {
			return fmt.Errorf("recording tick %d: %w", r.Tick, err)
		}

		if server != nil {
			if err := server.publish(ctx, r, frame.Tick%config.Telemetry.EveryNthTick == 0); err != nil {
				return fmt.Errorf("publishing tick %d: %w", r.Tick, err)
			}
		}
	}

	return nil
}

func storagePath(config *StorageConfig) (string, error) {
	dir := config.DataDirectory
	if dir == "" {
		dir = defaultDataDirectory
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving storage directory: %w", err)
	}

	stat, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("storage directory '%s' does not exist: %w", dir, err)
		}
		return "", err
	}
	if !stat.IsDir() {
		return "", fmt.Errorf("invalid storage directory '%s'", dir)
	}

	return filepath.Join(dir, fmt.Sprintf("flight_session_%s.sqlite", time.Now().UTC().Format("20060102_150405.000"))), nil
}
