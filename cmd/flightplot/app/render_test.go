package app

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/flight-control/internal/mixer"
	"github.com/roman-kulish/flight-control/internal/storage"
)

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func TestRenderGeometry(t *testing.T) {
	r, err := NewChartRenderer(RenderConfig{Width: 40, RowHeight: 10, NoAnnotations: true, NoThrottle: true})
	require.NoError(t, err)

	img, err := r.Render(testChart())
	require.NoError(t, err)

	// 56 + 40 + 24 wide; 36 + 4*(10+6) + 8 + 64 high
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 172, img.Bounds().Dy())

	fl := r.rowRect(mixer.FrontLeft)
	fr := r.rowRect(mixer.FrontRight)
	sat := r.rowRect(mixer.NumMotors)

	quarter := rgba(r.colorMap.GetColor(0.25))
	full := rgba(r.colorMap.GetColor(1))

	assert.Equal(t, quarter, img.RGBAAt(fl.Min.X+5, fl.Min.Y+5))
	assert.Equal(t, full, img.RGBAAt(fl.Min.X+35, fl.Min.Y+5))
	assert.Equal(t, quarter, img.RGBAAt(fr.Min.X+35, fr.Min.Y+5))

	// tick 15 saturated high spans columns 30 and 31
	assert.Equal(t, saturatedHighColor, img.RGBAAt(sat.Min.X+31, sat.Min.Y+2))
	assert.Equal(t, rgba(unsaturatedColor), img.RGBAAt(sat.Min.X+5, sat.Min.Y+2))

	// mode change at tick 10 marks column 20 through every row
	assert.Equal(t, modeMarkerColor, img.RGBAAt(fl.Min.X+20, fl.Min.Y+5))
	assert.Equal(t, modeMarkerColor, img.RGBAAt(sat.Min.X+20, sat.Min.Y+2))

	assert.Equal(t, rgba(backgroundColor), img.RGBAAt(2, 2))
}

func TestRenderThrottle(t *testing.T) {
	r, err := NewChartRenderer(RenderConfig{Width: 40, RowHeight: 11, NoAnnotations: true})
	require.NoError(t, err)

	img, err := r.Render(testChart())
	require.NoError(t, err)

	// throttle 0.5 sits mid-strip
	row := r.rowRect(mixer.BackLeft)
	assert.Equal(t, rgba(throttleTraceColor), img.RGBAAt(row.Min.X+5, row.Max.Y-6))
}

func TestRenderAnnotated(t *testing.T) {
	r, err := NewChartRenderer(RenderConfig{})
	require.NoError(t, err)

	chart := testChart()
	chart.Session = &storage.Session{
		SessionMeta: storage.SessionMeta{Name: "hover", DT: 0.01, MaxMotorForce: 4.905},
		ID:          1,
	}

	img, err := r.Render(chart)
	require.NoError(t, err)
	assert.Equal(t, defaultLeftBorder+defaultWidth+defaultRightBorder, img.Bounds().Dx())

	// labels leave ink in the left border next to the first row
	row := r.rowRect(0)
	var ink bool
	for x := 0; x < row.Min.X && !ink; x++ {
		for y := row.Min.Y; y < row.Max.Y; y++ {
			if img.RGBAAt(x, y) != rgba(backgroundColor) {
				ink = true
				break
			}
		}
	}
	assert.True(t, ink)
}

func TestRenderErrors(t *testing.T) {
	r, err := NewChartRenderer(RenderConfig{})
	require.NoError(t, err)

	_, err = r.Render(NewChartData(nil))
	assert.Error(t, err)

	_, err = NewChartRenderer(RenderConfig{Width: -1})
	assert.Error(t, err)

	_, err = NewChartRenderer(RenderConfig{ColorTheme: "sepia"})
	assert.Error(t, err)
}

func TestCalculateNiceTimeStep(t *testing.T) {
	tests := []struct {
		duration time.Duration
		width    int
		want     time.Duration
	}{
		{200 * time.Millisecond, 1200, 20 * time.Millisecond},
		{10 * time.Second, 1200, time.Second},
		{10 * time.Second, 120, 10 * time.Second},
		{0, 1200, time.Millisecond},
		{24 * time.Hour, 1200, 30 * time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateNiceTimeStep(tt.duration, tt.width), "%s over %dpx", tt.duration, tt.width)
	}
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0 s", formatElapsed(0))
	assert.Equal(t, "10 ms", formatElapsed(10*time.Millisecond))
	assert.Equal(t, "1.5 s", formatElapsed(1500*time.Millisecond))
}
