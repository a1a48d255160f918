package ui

import "github.com/agbru/pdcbench/internal/experiment"

// Color accessors read the active theme so output follows --no-color.

func ColorGrey() string   { return GetCurrentTheme().Secondary }
func ColorGreen() string  { return GetCurrentTheme().Success }
func ColorYellow() string { return GetCurrentTheme().Warning }
func ColorRed() string    { return GetCurrentTheme().Error }
func ColorCyan() string   { return GetCurrentTheme().Info }
func ColorBold() string   { return GetCurrentTheme().Bold }
func ColorReset() string  { return GetCurrentTheme().Reset }

// StatusColor returns the escape code used to print status.
func StatusColor(status experiment.Status) string {
	t := GetCurrentTheme()
	switch status {
	case experiment.StatusProcessing:
		return t.Warning
	case experiment.StatusCompleted:
		return t.Success
	case experiment.StatusFailed:
		return t.Error
	default:
		return t.Info
	}
}

// Colorize wraps s in color and a reset, or returns s unchanged when color
// is empty.
func Colorize(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + GetCurrentTheme().Reset
}
