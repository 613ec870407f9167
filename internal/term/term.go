// Package term provides ANSI color palettes and terminal detection.
//
// A [Palette] is resolved once per logger. When colors are disabled every
// field is an empty string, making string concatenation a no-op.
package term

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/backmassage/dsconvert/internal/config"
)

// Palette holds ANSI color codes. The zero value has colors disabled.
type Palette struct {
	Red     string
	Green   string
	Yellow  string
	Blue    string
	Cyan    string
	Magenta string
	NC      string // Reset sequence.
}

// Colored is the palette used when colors are enabled.
var Colored = Palette{
	Red:     "\033[1;91m",
	Green:   "\033[1;92m",
	Yellow:  "\033[1;93m",
	Blue:    "\033[1;94m",
	Cyan:    "\033[1;96m",
	Magenta: "\033[1;95m",
	NC:      "\033[0m",
}

// Enabled reports whether the palette emits ANSI sequences.
func (p Palette) Enabled() bool { return p.NC != "" }

// Resolve returns the palette for mode, consulting out for TTY detection
// and the NO_COLOR env var (https://no-color.org) in auto mode.
func Resolve(mode config.ColorMode, out *os.File) Palette {
	if enabled(mode, out) {
		return Colored
	}
	return Palette{}
}

func enabled(mode config.ColorMode, out *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // ColorAuto
		return IsTerminal(out) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
