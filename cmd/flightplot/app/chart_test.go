package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flight-control/internal/mixer"
	"github.com/roman-kulish/flight-control/internal/telemetry"
)

func tickRecord(tick int64, mode string, load [mixer.NumMotors]float64) *telemetry.Record {
	return &telemetry.Record{
		Tick:     tick,
		Elapsed:  time.Duration(tick) * 10 * time.Millisecond,
		Mode:     mode,
		Throttle: 0.5,
		Load:     load,
	}
}

// testChart has ticks 0-9 in rate mode at load 0.25 and ticks 10-19 in angle
// mode at load 1 on the front left motor.
func testChart() *ChartData {
	c := NewChartData(nil)
	for i := int64(0); i < 20; i++ {
		mode := "ACRO / RATE"
		load := [mixer.NumMotors]float64{0.25, 0.25, 0.25, 0.25}
		if i >= 10 {
			mode = "ANGLE + ALT"
			load[mixer.FrontLeft] = 1
		}

		rec := tickRecord(i, mode, load)
		if i == 10 {
			rec.ModeChange = &telemetry.ModeChange{Tick: i, Mode: mode, Previous: "ACRO / RATE"}
		}
		if i == 15 {
			rec.Saturated = mixer.SaturatedHigh
		}
		c.Update(rec)
	}
	return c
}

func TestChartDataUpdate(t *testing.T) {
	c := testChart()

	assert.Equal(t, 20, c.Len())
	assert.Equal(t, int64(0), c.TickStart)
	assert.Equal(t, int64(19), c.TickEnd)
	assert.Equal(t, time.Duration(0), c.ElapsedStart)
	assert.Equal(t, 190*time.Millisecond, c.ElapsedEnd)

	require.Len(t, c.ModeChanges, 1)
	assert.Equal(t, []ModeSpan{
		{Mode: "ACRO / RATE", FirstTick: 0, LastTick: 9},
		{Mode: "ANGLE + ALT", FirstTick: 10, LastTick: 19},
	}, c.Modes)

	assert.Equal(t, 1.0, c.PeakLoad[mixer.FrontLeft])
	assert.Equal(t, 0.25, c.PeakLoad[mixer.BackRight])
	assert.InDelta(t, 0.625, c.MeanLoad[mixer.FrontLeft], 1e-12)
	assert.InDelta(t, 0.25, c.MeanLoad[mixer.FrontRight], 1e-12)
}

func TestChartDataSameModeChange(t *testing.T) {
	c := NewChartData(nil)
	c.Update(tickRecord(0, "ACRO / RATE", [mixer.NumMotors]float64{}))

	rec := tickRecord(1, "ACRO / RATE", [mixer.NumMotors]float64{})
	rec.ModeChange = &telemetry.ModeChange{Tick: 1, Mode: "ACRO / RATE", Previous: "ACRO / RATE"}
	c.Update(rec)

	assert.Len(t, c.Modes, 2, "a mode change starts a new span even when the mode repeats")
}

func TestChartDataColumn(t *testing.T) {
	c := testChart()

	t.Run("downsampled", func(t *testing.T) {
		// 20 ticks over 4 columns: 5 ticks each
		load, sat := c.Column(0, 4)
		assert.Equal(t, [mixer.NumMotors]float64{0.25, 0.25, 0.25, 0.25}, load)
		assert.Zero(t, sat)

		load, sat = c.Column(2, 4)
		assert.Equal(t, 1.0, load[mixer.FrontLeft])
		assert.Zero(t, sat)

		_, sat = c.Column(3, 4)
		assert.True(t, sat.High())
	})

	t.Run("stretched", func(t *testing.T) {
		// 20 ticks over 40 columns: 2 columns per tick
		lo, hi := c.columnTicks(21, 40)
		assert.Equal(t, 10, lo)
		assert.Equal(t, 11, hi)

		load, _ := c.Column(19, 40)
		assert.Equal(t, 0.25, load[mixer.FrontLeft])
		load, _ = c.Column(20, 40)
		assert.Equal(t, 1.0, load[mixer.FrontLeft])
	})

	t.Run("tick x", func(t *testing.T) {
		assert.Equal(t, 0, c.TickX(0, 40))
		assert.Equal(t, 20, c.TickX(10, 40))
		assert.Equal(t, 2, c.TickX(10, 4))
		assert.Equal(t, 4, c.TickX(10, 9))

		lo, hi := c.columnTicks(4, 9)
		assert.Equal(t, 8, lo)
		assert.Equal(t, 11, hi)
	})

	t.Run("empty", func(t *testing.T) {
		empty := NewChartData(nil)
		load, sat := empty.Column(0, 10)
		assert.Zero(t, load)
		assert.Zero(t, sat)
		assert.Equal(t, 0, empty.TickX(3, 10))
	})
}
