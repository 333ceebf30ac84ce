package app

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roman-kulish/flight-control/internal/mixer"
)

const (
	dpi            = 72.0
	fontSize       = 12.0
	tickMarkHeight = 5
	pixelsPerLabel = 120.0
	labelPadding   = 4
)

type annotatorConfig struct {
	FontSize float64
	Borders  BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingFull)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, r *ChartRenderer, chart *ChartData) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *ChartRenderer, *ChartData) error
	}{
		{"drawing row labels", a.drawRowLabels},
		{"drawing mode labels", a.drawModeLabels},
		{"drawing time scale", a.drawTimeScale},
		{"drawing info bar", a.drawInfoBar},
	}
	for _, op := range ops {
		if err := op.fn(img, r, chart); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}
	return nil
}

func (a *annotator) fontHeight() (height, descent int) {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round(), metrics.Descent.Round()
}

func (a *annotator) drawString(s string, x, y int) error {
	_, err := a.context.DrawString(s, freetype.Pt(x, y))
	return err
}

func (a *annotator) drawRowLabels(_ *image.RGBA, r *ChartRenderer, chart *ChartData) error {
	height, descent := a.fontHeight()

	labels := append(motorLabels[:], "SAT")
	for row, label := range labels {
		rect := r.rowRect(row)
		width := font.MeasureString(a.fontFace, label).Round()
		textY := rect.Min.Y + (rect.Dy()+height)/2 - descent
		if err := a.drawString(label, rect.Min.X-width-labelPadding*2, textY); err != nil {
			return fmt.Errorf("drawing %s label: %w", label, err)
		}
	}
	return nil
}

// drawModeLabels names the mode of each span above the plot. A label that
// would overlap the previous one is skipped.
func (a *annotator) drawModeLabels(_ *image.RGBA, r *ChartRenderer, chart *ChartData) error {
	_, descent := a.fontHeight()
	plot := r.plotRect()
	textY := plot.Min.Y - tickMarkHeight - descent - 2

	nextFree := math.MinInt
	for _, span := range chart.Modes {
		x := plot.Min.X + chart.TickX(span.FirstTick, r.config.Width) + labelPadding
		if x < nextFree {
			continue
		}
		if err := a.drawString(span.Mode, x, textY); err != nil {
			return fmt.Errorf("drawing mode label: %w", err)
		}
		nextFree = x + font.MeasureString(a.fontFace, span.Mode).Round() + labelPadding*2
	}
	return nil
}

func (a *annotator) drawTimeScale(img *image.RGBA, r *ChartRenderer, chart *ChartData) error {
	plot := r.plotRect()
	height, _ := a.fontHeight()

	start, end := chart.ElapsedStart, chart.ElapsedEnd
	step := calculateNiceTimeStep(end-start, r.config.Width)
	first := start.Truncate(step)
	if first < start {
		first += step
	}

	span := float64(end - start)
	for t := first; t <= end; t += step {
		ratio := 0.0
		if span > 0 {
			ratio = float64(t-start) / span
		}
		x := plot.Min.X + int(ratio*float64(r.config.Width-1))

		for y := plot.Max.Y; y < plot.Max.Y+tickMarkHeight; y++ {
			img.Set(x, y, color.Black)
		}

		label := formatElapsed(t)
		width := font.MeasureString(a.fontFace, label).Round()
		if err := a.drawString(label, x-width/2, plot.Max.Y+tickMarkHeight+height); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}

		if span == 0 {
			break
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, _ *ChartRenderer, chart *ChartData) error {
	_, descent := a.fontHeight()

	var sb strings.Builder
	if s := chart.Session; s != nil {
		fmt.Fprintf(&sb, "%s (#%d); dt %s; max force %s; ",
			s.Name, s.ID,
			formatElapsed(time.Duration(s.DT*float64(time.Second))),
			humanize.SIWithDigits(s.MaxMotorForce, 2, "N"))
	}
	fmt.Fprintf(&sb, "ticks %s-%s (%s); ", humanize.Comma(chart.TickStart), humanize.Comma(chart.TickEnd), humanize.Comma(int64(chart.Len())))
	fmt.Fprintf(&sb, "mode changes %d; peak", len(chart.ModeChanges))
	for m := range mixer.NumMotors {
		fmt.Fprintf(&sb, " %s %s%%", motorLabels[m], humanize.FtoaWithDigits(chart.PeakLoad[m]*100, 1))
	}

	textY := img.Bounds().Max.Y - labelPadding - descent
	if err := a.drawString(sb.String(), a.config.Borders.Left, textY); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

// Helper functions

func formatElapsed(d time.Duration) string {
	value, prefix := humanize.ComputeSI(d.Seconds())
	return humanize.FtoaWithDigits(value, 2) + " " + prefix + "s"
}

func calculateNiceTimeStep(duration time.Duration, width int) time.Duration {
	steps := []time.Duration{
		time.Millisecond,
		2 * time.Millisecond,
		5 * time.Millisecond,
		10 * time.Millisecond,
		20 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		5 * time.Second,
		10 * time.Second,
		30 * time.Second,
		time.Minute,
		5 * time.Minute,
		10 * time.Minute,
	}

	labels := max(1, float64(width)/pixelsPerLabel)
	target := time.Duration(float64(duration) / labels)

	for _, step := range steps {
		if step >= target {
			return step
		}
	}
	return 30 * time.Minute
}
