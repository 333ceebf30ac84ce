package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
)

type ImageFormat string

type Config struct {
	DBPath        string
	SessionID     int64
	OutputFile    string
	Format        ImageFormat
	FromTick      *int64
	ToTick        *int64
	Mode          string
	Width         int
	RowHeight     int
	Theme         ColorTheme
	Verbose       bool
	NoAnnotations bool
	NoThrottle    bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format:    ImagePNG,
		Width:     defaultWidth,
		RowHeight: defaultRowHeight,
		Theme:     TrafficTheme,
	}
}

func NewConfigFromCLI() (*Config, error) {
	return NewConfigFromArgs(flag.CommandLine, os.Args[1:])
}

// NewConfigFromArgs parses args with fs. The output file gets the image
// format as its extension.
func NewConfigFromArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var imageFormat, theme string
	var fromTick, toTick int64
	fs.StringVar(&c.DBPath, "db", "", "Path to the database file")
	fs.Int64Var(&c.SessionID, "s", 1, "Session ID")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	fs.Int64Var(&fromTick, "from", 0, "First tick to plot")
	fs.Int64Var(&toTick, "to", 0, "Last tick to plot")
	fs.StringVar(&c.Mode, "mode", "", "Only plot ticks flown in this flight mode, e.g. \"ANGLE + ALT\"")
	fs.IntVar(&c.Width, "width", defaultWidth, "Plot width in pixels")
	fs.IntVar(&c.RowHeight, "row-height", defaultRowHeight, "Height of each motor row in pixels")
	fs.StringVar(&theme, "theme", string(TrafficTheme), "Motor load color theme. [traffic, thermal, grayscale]")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as labels and time scale")
	fs.BoolVar(&c.NoThrottle, "no-throttle", false, "Do not trace the commanded throttle")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	imageFormat = strings.ToLower(imageFormat)

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "from" {
			c.FromTick = &fromTick
		}
		if f.Name == "to" {
			c.ToTick = &toTick
		}
	})

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.SessionID <= 0 {
		err = errors.New("session id is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if _, ok := colorThemes[ColorTheme(theme)]; !ok {
		err = fmt.Errorf("invalid color theme: %s", theme)
	} else if c.Width <= 0 || c.RowHeight <= 0 {
		err = fmt.Errorf("invalid chart size: width=%d, row height=%d", c.Width, c.RowHeight)
	} else if c.FromTick != nil && c.ToTick != nil && *c.FromTick > *c.ToTick {
		err = fmt.Errorf("tick range is reversed: %d > %d", *c.FromTick, *c.ToTick)
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.Theme = ColorTheme(theme)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
