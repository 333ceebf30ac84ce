package app

import (
	"context"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flight-control/internal/mixer"
	"github.com/roman-kulish/flight-control/internal/storage"
	"github.com/roman-kulish/flight-control/internal/telemetry"
)

func writeSession(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "flight.sqlite")
	store := storage.NewSqliteStore(dbPath)

	id, err := store.CreateSession(ctx, storage.SessionMeta{Name: "hover", DT: 0.01, MaxMotorForce: 4}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	chart := testChart()
	records := make([]*telemetry.Record, chart.Len())
	for i := range records {
		mode := chart.Modes[0].Mode
		if i >= chart.Modes[1].FirstTick {
			mode = chart.Modes[1].Mode
		}

		forces := mixer.MotorForces{}
		for m, l := range chart.Loads[i] {
			forces[m] = l * 4
		}

		records[i] = tickRecord(int64(i), mode, chart.Loads[i])
		records[i].Forces = forces
		records[i].Saturated = chart.Saturated[i]
	}
	records[10].ModeChange = chart.ModeChanges[0]

	require.NoError(t, store.StoreRecords(ctx, id, records))
	require.NoError(t, store.Close())
	return dbPath
}

func TestRun(t *testing.T) {
	dbPath := writeSession(t)
	out := filepath.Join(t.TempDir(), "chart")

	config, err := parseArgs("-db", dbPath, "-o", out, "-width", "200")
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), config, slog.New(slog.DiscardHandler)))

	f, err := os.Open(out + ".png")
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, defaultLeftBorder+200+defaultRightBorder, img.Bounds().Dx())
}

func TestRunFiltered(t *testing.T) {
	dbPath := writeSession(t)
	out := filepath.Join(t.TempDir(), "chart")

	config, err := parseArgs("-db", dbPath, "-o", out, "-f", "jpeg", "-mode", "ANGLE + ALT", "-verbose")
	require.NoError(t, err)

	store := storage.NewSqliteStore(dbPath)
	defer store.Close()

	chart, err := readChart(context.Background(), store, config, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, 10, chart.Len())
	assert.Equal(t, int64(10), chart.TickStart)
	require.Len(t, chart.Modes, 1)
	assert.Equal(t, "ANGLE + ALT", chart.Modes[0].Mode)
	require.Len(t, chart.ModeChanges, 1)

	require.NoError(t, renderChart(chart, config, slog.New(slog.DiscardHandler)))
	_, err = os.Stat(out + ".jpeg")
	assert.NoError(t, err)
}

func TestRunErrors(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	out := filepath.Join(t.TempDir(), "chart")

	t.Run("missing database", func(t *testing.T) {
		config, err := parseArgs("-db", filepath.Join(t.TempDir(), "missing.sqlite"), "-o", out)
		require.NoError(t, err)
		assert.ErrorContains(t, Run(context.Background(), config, logger), "does not exist")
	})

	t.Run("empty range", func(t *testing.T) {
		config, err := parseArgs("-db", writeSession(t), "-o", out, "-from", "500")
		require.NoError(t, err)
		assert.ErrorContains(t, Run(context.Background(), config, logger), "no ticks")
	})

	t.Run("unknown session", func(t *testing.T) {
		config, err := parseArgs("-db", writeSession(t), "-o", out, "-s", "7")
		require.NoError(t, err)
		assert.Error(t, Run(context.Background(), config, logger))
	})
}
