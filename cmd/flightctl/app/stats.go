package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/flight-control/internal/mixer"
	"github.com/roman-kulish/flight-control/internal/telemetry"
)

// flightStats accumulates a run summary from tick records.
type flightStats struct {
	maxMotorForce float64
	dt            float64

	ticks         int64
	modeChanges   int
	saturatedLow  int64
	saturatedHigh int64
	peakForce     float64
	totalForce    float64
	lastMode      string
	lastElapsed   float64
	forcesPerTick [mixer.NumMotors]float64
}

func newFlightStats(maxMotorForce, dt float64) *flightStats {
	return &flightStats{maxMotorForce: maxMotorForce, dt: dt}
}

func (s *flightStats) update(r *telemetry.Record) {
	s.ticks++
	if r.ModeChange != nil {
		s.modeChanges++
	}
	if r.Saturated.Low() {
		s.saturatedLow++
	}
	if r.Saturated.High() {
		s.saturatedHigh++
	}

	for i, f := range r.Forces {
		s.peakForce = max(s.peakForce, f)
		s.forcesPerTick[i] += f
	}
	s.totalForce += r.Forces.Total()
	s.lastMode = r.Mode
	s.lastElapsed = r.Elapsed.Seconds()
}

// meanLoad is the average load of each motor over the run.
func (s *flightStats) meanLoad() [mixer.NumMotors]float64 {
	var load [mixer.NumMotors]float64
	if s.ticks == 0 {
		return load
	}

	mean := mixer.MotorForces(s.forcesPerTick)
	for i := range mean {
		mean[i] /= float64(s.ticks)
	}
	return mean.Load(s.maxMotorForce)
}

func (s *flightStats) log(logger *slog.Logger, rec *Recorder, dbPath string) {
	load := s.meanLoad()

	attrs := []any{
		slog.Int64("session", rec.SessionID()),
		slog.String("ticks", humanize.Comma(s.ticks)),
		slog.String("stored", humanize.Comma(rec.Stored())),
		slog.Int("modeChanges", s.modeChanges),
		slog.String("finalMode", s.lastMode),
		slog.String("flightTime", fmt.Sprintf("%.2fs", s.lastElapsed)),
		slog.String("peakForce", humanize.SIWithDigits(s.peakForce, 2, "N")),
		slog.String("impulse", humanize.SIWithDigits(s.totalForce*s.dt, 2, "Ns")),
		slog.Group("saturated",
			slog.Int64("low", s.saturatedLow),
			slog.Int64("high", s.saturatedHigh),
		),
		slog.Group("meanLoad",
			slog.String("frontLeft", humanize.FtoaWithDigits(load[mixer.FrontLeft]*100, 1)+"%"),
			slog.String("frontRight", humanize.FtoaWithDigits(load[mixer.FrontRight]*100, 1)+"%"),
			slog.String("backLeft", humanize.FtoaWithDigits(load[mixer.BackLeft]*100, 1)+"%"),
			slog.String("backRight", humanize.FtoaWithDigits(load[mixer.BackRight]*100, 1)+"%"),
		),
	}

	if stat, err := os.Stat(dbPath); err == nil {
		attrs = append(attrs, slog.String("database", dbPath), slog.String("size", humanize.Bytes(uint64(stat.Size()))))
	}

	logger.Info("flight finished", attrs...)
}
