package app

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme names a motor load colour scheme.
type ColorTheme string

const (
	TrafficTheme   ColorTheme = "traffic"   // green, yellow, red
	ThermalTheme   ColorTheme = "thermal"   // black, red, yellow, white
	GrayscaleTheme ColorTheme = "grayscale" // black to white

	DefaultColorMapSize = 256
)

var colorThemes = map[ColorTheme][]string{
	TrafficTheme:   {"#1a9850", "#fee08b", "#d73027"},
	ThermalTheme:   {"#000000", "#b2182b", "#fdae61", "#ffffff"},
	GrayscaleTheme: {"#000000", "#ffffff"},
}

// gradient interpolates between evenly spaced colour stops in the HCL
// colour space.
type gradient []colorful.Color

func newGradient(theme ColorTheme) (gradient, error) {
	stops, ok := colorThemes[theme]
	if !ok {
		return nil, fmt.Errorf("unknown color theme: %s", theme)
	}

	g := make(gradient, len(stops))
	for i, hex := range stops {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("parsing color %s: %w", hex, err)
		}
		g[i] = c
	}
	return g, nil
}

func (g gradient) at(t float64) colorful.Color {
	if t <= 0 {
		return g[0]
	}
	if t >= 1 {
		return g[len(g)-1]
	}

	pos := t * float64(len(g)-1)
	i := int(pos)
	return g[i].BlendHcl(g[i+1], pos-float64(i)).Clamped()
}

// ColorMapper maps a motor load fraction in [0, 1] to a colour through a
// pre-computed lookup table.
type ColorMapper struct {
	colorMap  []color.Color
	themeName ColorTheme
}

// NewColorMapper creates a mapper with DefaultColorMapSize colours.
func NewColorMapper(theme ColorTheme) (*ColorMapper, error) {
	return NewColorMapperWithSize(theme, DefaultColorMapSize)
}

func NewColorMapperWithSize(theme ColorTheme, size int) (*ColorMapper, error) {
	if size < 2 {
		size = DefaultColorMapSize
	}

	g, err := newGradient(theme)
	if err != nil {
		return nil, err
	}

	cm := ColorMapper{
		colorMap:  make([]color.Color, size),
		themeName: theme,
	}
	for i := range cm.colorMap {
		cm.colorMap[i] = g.at(float64(i) / float64(size-1))
	}
	return &cm, nil
}

// GetColor returns the colour of load. Loads outside [0, 1] get the colour
// of the nearest bound.
func (cm *ColorMapper) GetColor(load float64) color.Color {
	switch {
	case math.IsNaN(load) || load <= 0:
		return cm.colorMap[0]
	case load >= 1:
		return cm.colorMap[len(cm.colorMap)-1]
	}
	return cm.colorMap[int(load*float64(len(cm.colorMap)-1)+0.5)]
}

func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

func (cm *ColorMapper) Size() int {
	return len(cm.colorMap)
}
