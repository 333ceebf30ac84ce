package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flight-control/internal/flight"
	"github.com/roman-kulish/flight-control/internal/mixer"
	"github.com/roman-kulish/flight-control/internal/telemetry"
)

const (
	testMaxForce = 4.905
	testTicks    = 1200
)

var testMeta = SessionMeta{
	Name:          "hover",
	Scenario:      "testdata/hover.yaml",
	DT:            0.01,
	MaxMotorForce: testMaxForce,
}

func modeAt(tick int64) string {
	switch {
	case tick < 400:
		return "ACRO / RATE"
	case tick < 800:
		return "ANGLE + ALT"
	default:
		return "VELOCITY CRUISE"
	}
}

func makeRecord(tick int64) *telemetry.Record {
	f := float64(tick)
	r := &telemetry.Record{
		Tick:    tick,
		Elapsed: time.Duration(tick) * 10 * time.Millisecond,
		Mode:    modeAt(tick),
		Input: flight.Input{
			Cyclic:     flight.Vec2{X: 0.001 * f, Y: -0.5},
			Yaw:        0.25,
			Throttle:   0.6,
			ModeSwitch: tick == 400 || tick == 800,
		},
		State: flight.State{
			Rotation:         flight.Vec3{X: 1, Y: 2, Z: 3},
			AngularVelocity:  flight.Vec3{X: -f, Y: 0.5, Z: f},
			Velocity:         flight.Vec3{X: 0.1, Y: 0.2, Z: 0.3},
			VerticalVelocity: -0.75,
		},
		TargetRate: flight.Vec3{X: 90, Y: -45, Z: 12.5},
		Throttle:   0.6,
		Correction: flight.Vec3{X: 0.125, Y: -0.0625, Z: 0.5},
		Collective: 2.943,
		Forces:     mixer.MotorForces{1, 2, 3, 4.905},
		Saturated:  mixer.Saturation(tick % 4),
	}
	r.Load = r.Forces.Load(testMaxForce)

	if r.Input.ModeSwitch {
		r.ModeChange = &telemetry.ModeChange{
			Tick:     tick,
			Elapsed:  r.Elapsed,
			Mode:     modeAt(tick),
			Previous: modeAt(tick - 1),
		}
	}
	return r
}

func newTestStore(t *testing.T) (*SqliteStore, int64) {
	t.Helper()
	ctx := context.Background()

	store := NewSqliteStore(filepath.Join(t.TempDir(), "flight.db"))
	t.Cleanup(func() { _ = store.Close() })

	id, err := store.CreateSession(ctx, testMeta, map[string]any{"modes": []string{"rate", "angle"}})
	require.NoError(t, err)
	require.Positive(t, id)

	records := make([]*telemetry.Record, 0, testTicks)
	for i := int64(0); i < testTicks; i++ {
		records = append(records, makeRecord(i))
	}
	require.NoError(t, store.StoreRecords(ctx, id, records))

	return store, id
}

func readAll(t *testing.T, r *SqliteRecordReader) []*telemetry.Record {
	t.Helper()

	var out []*telemetry.Record
	for r.Next(context.Background()) {
		out = append(out, r.Current())
	}
	require.NoError(t, r.Error())
	return out
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	store, id := newTestStore(t)

	sess, err := store.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, testMeta, sess.SessionMeta)
	assert.False(t, sess.StartTime.IsZero())
	require.NotNil(t, sess.Config)
	assert.JSONEq(t, `{"modes":["rate","angle"]}`, *sess.Config)

	id2, err := store.CreateSession(ctx, SessionMeta{Name: "second"}, nil)
	require.NoError(t, err)

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, id2, sessions[1].ID)
	assert.Nil(t, sessions[1].Config)

	_, err = store.Session(ctx, 9999)
	assert.Error(t, err)
}

func TestStoreAndReadRecords(t *testing.T) {
	ctx := context.Background()
	store, id := newTestStore(t)

	r, err := store.ReadRecords(ctx, id, WithPageSize(128))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, int64(testTicks), r.Len())
	assert.Equal(t, testMeta.Name, r.Session().Name)

	got := readAll(t, r)
	require.Len(t, got, testTicks)
	for i, rec := range got {
		require.Equal(t, makeRecord(int64(i)), rec, "tick %d", i)
	}

	assert.False(t, r.Next(ctx), "reader stays exhausted")
}

func TestReadRecordsFilters(t *testing.T) {
	ctx := context.Background()
	store, id := newTestStore(t)

	t.Run("tick range", func(t *testing.T) {
		r, err := store.ReadRecords(ctx, id, WithTickRange(100, 149), WithPageSize(7))
		require.NoError(t, err)
		defer r.Close()

		got := readAll(t, r)
		require.Len(t, got, 50)
		assert.Equal(t, int64(100), got[0].Tick)
		assert.Equal(t, int64(149), got[49].Tick)
	})

	t.Run("mode", func(t *testing.T) {
		r, err := store.ReadRecords(ctx, id, WithMode("ANGLE + ALT"))
		require.NoError(t, err)
		defer r.Close()

		got := readAll(t, r)
		require.Len(t, got, 400)
		assert.Equal(t, int64(400), got[0].Tick)
		assert.Equal(t, int64(799), got[399].Tick)
	})

	t.Run("empty session", func(t *testing.T) {
		empty, err := store.CreateSession(ctx, SessionMeta{Name: "empty"}, nil)
		require.NoError(t, err)

		r, err := store.ReadRecords(ctx, empty)
		require.NoError(t, err)
		defer r.Close()

		assert.Empty(t, readAll(t, r))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := store.ReadRecords(ctx, id, WithTickRange(10, 5))
		assert.Error(t, err)

		_, err = store.ReadRecords(ctx, id, WithPageSize(0))
		assert.Error(t, err)

		_, err = store.ReadRecords(ctx, 9999)
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		r, err := store.ReadRecords(ctx, id)
		require.NoError(t, err)
		defer r.Close()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.False(t, r.Next(cctx))
		assert.ErrorIs(t, r.Error(), context.Canceled)
	})
}

func TestModeChanges(t *testing.T) {
	ctx := context.Background()
	store, id := newTestStore(t)

	changes, err := store.ModeChanges(ctx, id)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, telemetry.ModeChange{
		Tick:     400,
		Elapsed:  4 * time.Second,
		Mode:     "ANGLE + ALT",
		Previous: "ACRO / RATE",
	}, *changes[0])
	assert.Equal(t, int64(800), changes[1].Tick)
}

func TestStoreRecordsEmpty(t *testing.T) {
	store := NewSqliteStore(filepath.Join(t.TempDir(), "flight.db"))
	assert.NoError(t, store.StoreRecords(context.Background(), 1, nil))
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
