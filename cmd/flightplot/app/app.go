package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/flight-control/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	chart, err := readChart(ctx, store, config, logger)
	if err != nil {
		return err
	}

	return renderChart(chart, config, logger)
}

func readChart(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) (*ChartData, error) {
	var opts []storage.ReaderOption
	var filters []any
	if config.FromTick != nil || config.ToTick != nil {
		from, to := int64(math.MinInt64), int64(math.MaxInt64)
		if config.FromTick != nil {
			from = *config.FromTick
			filters = append(filters, slog.Int64("fromTick", from))
		}
		if config.ToTick != nil {
			to = *config.ToTick
			filters = append(filters, slog.Int64("toTick", to))
		}
		opts = append(opts, storage.WithTickRange(from, to))
	}
	if config.Mode != "" {
		opts = append(opts, storage.WithMode(config.Mode))
		filters = append(filters, slog.String("mode", config.Mode))
	}

	if config.Verbose {
		logger.Info("iterator configuration", filters...)
	}

	iter, err := store.ReadRecords(ctx, config.SessionID, opts...)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	logger.Info("reading ticks",
		slog.Int64("session", config.SessionID),
		slog.String("ticks", humanize.Comma(iter.Len())))

	chart := NewChartData(iter.Session())
	for iter.Next(ctx) {
		chart.Update(iter.Current())
	}
	if err = iter.Error(); err != nil {
		return nil, err
	}
	if chart.Len() == 0 {
		return nil, fmt.Errorf("session %d has no ticks to plot", config.SessionID)
	}

	logger.Info("finished reading ticks",
		slog.Group("stats",
			slog.Int64("fromTick", chart.TickStart),
			slog.Int64("toTick", chart.TickEnd),
			slog.String("from", formatElapsed(chart.ElapsedStart)),
			slog.String("to", formatElapsed(chart.ElapsedEnd)),
			slog.Int("modeChanges", len(chart.ModeChanges)),
			slog.Int("modeSpans", len(chart.Modes)),
		))

	return chart, nil
}

func renderChart(chart *ChartData, config *Config, logger *slog.Logger) (err error) {
	renderer, err := NewChartRenderer(RenderConfig{
		Width:         config.Width,
		RowHeight:     config.RowHeight,
		ColorTheme:    config.Theme,
		NoAnnotations: config.NoAnnotations,
		NoThrottle:    config.NoThrottle,
	})
	if err != nil {
		return fmt.Errorf("creating chart renderer: %w", err)
	}

	img, err := renderer.Render(chart)
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	logger.Info("rendering chart",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()),
		))

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
