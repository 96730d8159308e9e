package formatter

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/philipp01105/conlog/core"
)

// ColorMode decides when level colors are applied.
type ColorMode int

const (
	// ColorAuto colors lines only when the sink is a terminal
	ColorAuto ColorMode = iota
	// ColorAlways colors every line
	ColorAlways
	// ColorNever writes plain lines
	ColorNever
)

// String returns the string representation of the mode
func (m ColorMode) String() string {
	switch m {
	case ColorAuto:
		return "auto"
	case ColorAlways:
		return "always"
	case ColorNever:
		return "never"
	default:
		return "unknown"
	}
}

// ParseColorMode converts auto, always or never to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, errors.Errorf("invalid color mode %q", s)
	}
}

// Enabled reports whether lines written to w should be colored.
func (m ColorMode) Enabled(w io.Writer) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return IsTerminal(w)
	}
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Colorizers holds one colorizer per level.
type Colorizers [core.LevelCount]core.Colorizer

// For returns the colorizer for level, or nil.
func (c *Colorizers) For(level core.Level) core.Colorizer {
	if c == nil || !level.Valid() {
		return nil
	}
	return c[level]
}

// DefaultColorizers returns the standard palette: grey debug, cyan info,
// green notice, yellow warn, red error and bold red critical.
func DefaultColorizers() *Colorizers {
	bold := newColor(color.Bold)
	red := newColor(color.FgRed)
	return &Colorizers{
		core.DebugLevel:  sprint(newColor(color.FgHiBlack)),
		core.InfoLevel:   sprint(newColor(color.FgCyan)),
		core.NoticeLevel: sprint(newColor(color.FgGreen)),
		core.WarnLevel:   sprint(newColor(color.FgYellow)),
		core.ErrorLevel:  sprint(red),
		core.CriticalLevel: func(s string) string {
			return bold.Sprint(red.Sprint(s))
		},
	}
}

// newColor returns a color that renders regardless of color.NoColor;
// whether to color at all is decided per sink by ColorMode.
func newColor(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

func sprint(c *color.Color) core.Colorizer {
	return func(s string) string {
		return c.Sprint(s)
	}
}
