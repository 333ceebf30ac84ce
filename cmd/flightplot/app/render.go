package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/roman-kulish/flight-control/internal/mixer"
)

const (
	defaultWidth      = 1200
	defaultRowHeight  = 48
	defaultRowSpacing = 6
	saturationHeight  = 8

	// Default border sizes in pixels
	defaultTopBorder    = 36
	defaultLeftBorder   = 56
	defaultBottomBorder = 64
	defaultRightBorder  = 24
)

var (
	backgroundColor    = color.White
	modeMarkerColor    = color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff}
	saturatedLowColor  = color.RGBA{R: 0x21, G: 0x66, B: 0xac, A: 0xff}
	saturatedHighColor = color.RGBA{R: 0xb2, G: 0x18, B: 0x2b, A: 0xff}
	saturatedBothColor = color.RGBA{R: 0x76, G: 0x2a, B: 0x83, A: 0xff}
	unsaturatedColor   = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	throttleTraceColor = color.Black
	motorLabels        = [mixer.NumMotors]string{"FL", "FR", "BL", "BR"}
)

// BorderConfig defines the sizes of white space around the plot
type BorderConfig struct {
	Top    int // Space for mode labels
	Left   int // Space for motor labels
	Bottom int // Space for time scale and information bar
	Right  int // Right padding
}

// RenderConfig holds all configuration options for the motor load chart
type RenderConfig struct {
	Width      int // Plot width in pixels, excluding borders
	RowHeight  int // Height of each motor strip in pixels
	RowSpacing int // Gap between strips in pixels

	FontSize      float64
	ColorTheme    ColorTheme
	ColorMapSize  int
	NoAnnotations bool
	NoThrottle    bool // Skip the throttle trace over the strips

	BorderConfig BorderConfig
}

// ChartRenderer draws a strip chart with one row per motor, coloured by
// load, followed by a row flagging mixer saturation.
type ChartRenderer struct {
	colorMap *ColorMapper
	config   RenderConfig
}

// NewChartRenderer creates a new chart renderer with the given configuration
func NewChartRenderer(config RenderConfig) (*ChartRenderer, error) {
	if config.Width == 0 {
		config.Width = defaultWidth
	}
	if config.RowHeight == 0 {
		config.RowHeight = defaultRowHeight
	}
	if config.RowSpacing == 0 {
		config.RowSpacing = defaultRowSpacing
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.ColorTheme == "" {
		config.ColorTheme = TrafficTheme
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	if config.Width < 0 || config.RowHeight < 0 || config.RowSpacing < 0 {
		return nil, fmt.Errorf("invalid chart geometry: width=%d, rowHeight=%d, rowSpacing=%d", config.Width, config.RowHeight, config.RowSpacing)
	}

	cm, err := NewColorMapperWithSize(config.ColorTheme, config.ColorMapSize)
	if err != nil {
		return nil, err
	}

	return &ChartRenderer{colorMap: cm, config: config}, nil
}

// rowRect returns the area of strip row, motors first, saturation last.
func (r *ChartRenderer) rowRect(row int) image.Rectangle {
	top := r.config.BorderConfig.Top + row*(r.config.RowHeight+r.config.RowSpacing)
	height := r.config.RowHeight
	if row == mixer.NumMotors {
		height = saturationHeight
	}
	return image.Rect(r.config.BorderConfig.Left, top, r.config.BorderConfig.Left+r.config.Width, top+height)
}

// plotRect spans every row.
func (r *ChartRenderer) plotRect() image.Rectangle {
	return r.rowRect(0).Union(r.rowRect(mixer.NumMotors))
}

// Render creates an image of the chart data with annotations
func (r *ChartRenderer) Render(chart *ChartData) (*image.RGBA, error) {
	if chart.Len() == 0 {
		return nil, fmt.Errorf("no ticks to render")
	}

	plot := r.plotRect()
	img := image.NewRGBA(image.Rect(0, 0, plot.Max.X+r.config.BorderConfig.Right, plot.Max.Y+r.config.BorderConfig.Bottom))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	r.renderStrips(img, chart)
	if !r.config.NoThrottle {
		r.renderThrottle(img, chart)
	}
	r.renderModeMarkers(img, chart)

	if r.config.NoAnnotations {
		return img, nil
	}

	ann, err := newAnnotator(annotatorConfig{
		FontSize: r.config.FontSize,
		Borders:  r.config.BorderConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	if err = ann.annotate(img, r, chart); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}

	return img, nil
}

func (r *ChartRenderer) renderStrips(img *image.RGBA, chart *ChartData) {
	for x := 0; x < r.config.Width; x++ {
		load, sat := chart.Column(x, r.config.Width)

		for m := range mixer.NumMotors {
			row := r.rowRect(m)
			fill(img, image.Rect(row.Min.X+x, row.Min.Y, row.Min.X+x+1, row.Max.Y), r.colorMap.GetColor(load[m]))
		}

		row := r.rowRect(mixer.NumMotors)
		fill(img, image.Rect(row.Min.X+x, row.Min.Y, row.Min.X+x+1, row.Max.Y), saturationColor(sat))
	}
}

// renderThrottle traces the commanded throttle across every motor strip,
// bottom of the strip at 0 and top at 1.
func (r *ChartRenderer) renderThrottle(img *image.RGBA, chart *ChartData) {
	for x := 0; x < r.config.Width; x++ {
		lo, hi := chart.columnTicks(x, r.config.Width)
		if lo >= hi {
			continue
		}

		var throttle float64
		for i := lo; i < hi; i++ {
			throttle += chart.Throttle[i]
		}
		throttle /= float64(hi - lo)
		throttle = min(max(throttle, 0), 1)

		for m := range mixer.NumMotors {
			row := r.rowRect(m)
			y := row.Max.Y - 1 - int(throttle*float64(row.Dy()-1)+0.5)
			img.Set(row.Min.X+x, y, throttleTraceColor)
		}
	}
}

func (r *ChartRenderer) renderModeMarkers(img *image.RGBA, chart *ChartData) {
	plot := r.plotRect()
	for _, span := range chart.Modes[1:] {
		x := plot.Min.X + chart.TickX(span.FirstTick, r.config.Width)
		for y := plot.Min.Y - tickMarkHeight; y < plot.Max.Y; y++ {
			img.Set(x, y, modeMarkerColor)
		}
	}
}

func saturationColor(s mixer.Saturation) color.Color {
	switch {
	case s.Low() && s.High():
		return saturatedBothColor
	case s.Low():
		return saturatedLowColor
	case s.High():
		return saturatedHighColor
	}
	return unsaturatedColor
}

func fill(img *image.RGBA, rect image.Rectangle, c color.Color) {
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
}
