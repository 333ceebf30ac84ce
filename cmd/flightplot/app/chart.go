package app

import (
	"time"

	"github.com/roman-kulish/flight-control/internal/mixer"
	"github.com/roman-kulish/flight-control/internal/storage"
	"github.com/roman-kulish/flight-control/internal/telemetry"
)

// ModeSpan is a run of consecutive ticks flown in one mode.
type ModeSpan struct {
	Mode      string
	FirstTick int // index into ChartData columns
	LastTick  int
}

// ChartData accumulates the per-tick motor loads of a session in tick order.
type ChartData struct {
	Session *storage.Session

	Loads     [][mixer.NumMotors]float64
	Saturated []mixer.Saturation
	Throttle  []float64

	TickStart, TickEnd       int64
	ElapsedStart, ElapsedEnd time.Duration

	Modes       []ModeSpan
	ModeChanges []*telemetry.ModeChange

	PeakLoad [mixer.NumMotors]float64
	MeanLoad [mixer.NumMotors]float64
}

func NewChartData(session *storage.Session) *ChartData {
	return &ChartData{Session: session}
}

// Len is the number of ticks in the chart.
func (c *ChartData) Len() int {
	return len(c.Loads)
}

func (c *ChartData) Update(rec *telemetry.Record) {
	n := len(c.Loads)
	if n == 0 {
		c.TickStart = rec.Tick
		c.ElapsedStart = rec.Elapsed
	}
	c.TickEnd = rec.Tick
	c.ElapsedEnd = rec.Elapsed

	c.Loads = append(c.Loads, rec.Load)
	c.Saturated = append(c.Saturated, rec.Saturated)
	c.Throttle = append(c.Throttle, rec.Throttle)

	for i, l := range rec.Load {
		c.PeakLoad[i] = max(c.PeakLoad[i], l)
		c.MeanLoad[i] += (l - c.MeanLoad[i]) / float64(n+1)
	}

	if rec.ModeChange != nil {
		c.ModeChanges = append(c.ModeChanges, rec.ModeChange)
	}

	if last := len(c.Modes) - 1; last >= 0 && c.Modes[last].Mode == rec.Mode && rec.ModeChange == nil {
		c.Modes[last].LastTick = n
	} else {
		c.Modes = append(c.Modes, ModeSpan{Mode: rec.Mode, FirstTick: n, LastTick: n})
	}
}

// Column reduces the ticks covered by pixel column x of a plot width pixels
// wide: the peak load of each motor and every saturation flag raised.
func (c *ChartData) Column(x, width int) (load [mixer.NumMotors]float64, sat mixer.Saturation) {
	lo, hi := c.columnTicks(x, width)
	for i := lo; i < hi; i++ {
		for m, l := range c.Loads[i] {
			load[m] = max(load[m], l)
		}
		sat |= c.Saturated[i]
	}
	return
}

// columnTicks returns the half-open tick index range drawn in column x.
func (c *ChartData) columnTicks(x, width int) (lo, hi int) {
	n := len(c.Loads)
	if n == 0 || width <= 0 {
		return 0, 0
	}

	lo = x * n / width
	hi = max(lo+1, (x+1)*n/width)
	return min(lo, n), min(hi, n)
}

// TickX returns the pixel column that draws tick index i.
func (c *ChartData) TickX(i, width int) int {
	n := len(c.Loads)
	if n == 0 {
		return 0
	}

	x := (i*width + n - 1) / n
	if lo, _ := c.columnTicks(x, width); lo > i {
		x--
	}
	return x
}
