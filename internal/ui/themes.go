package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines a color scheme for CLI output.
// Each field contains an ANSI escape code for the corresponding category.
type Theme struct {
	// Name is the identifier of the theme.
	Name string
	// Primary highlights mode names and headings.
	Primary string
	// Secondary is used for ids, URLs and other low-priority text.
	Secondary string
	// Success marks COMPLETED experiments and derived metrics.
	Success string
	// Warning marks PROCESSING experiments.
	Warning string
	// Error marks FAILED experiments and error messages.
	Error string
	// Info marks PENDING experiments and hints.
	Info string
	// Bold is the escape code for bold text.
	Bold string
	// Underline is the escape code for underlined text.
	Underline string
	// Reset clears all formatting.
	Reset string
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   "\033[38;5;39m",  // bright blue
		Secondary: "\033[38;5;245m", // grey
		Success:   "\033[38;5;82m",  // bright green
		Warning:   "\033[38;5;220m", // yellow
		Error:     "\033[38;5;196m", // red
		Info:      "\033[38;5;51m",  // cyan
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// LightTheme is optimized for light terminal backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   "\033[38;5;27m",  // dark blue
		Secondary: "\033[38;5;240m", // dark grey
		Success:   "\033[38;5;28m",  // dark green
		Warning:   "\033[38;5;130m", // orange
		Error:     "\033[38;5;124m", // dark red
		Info:      "\033[38;5;30m",  // teal
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// NoColorTheme disables all color output.
	// Used when NO_COLOR is set or --no-color is given.
	NoColorTheme = Theme{Name: "none"}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// TUITheme defines lipgloss colors for the dashboard.
type TUITheme struct {
	Text       lipgloss.TerminalColor
	Border     lipgloss.TerminalColor
	Accent     lipgloss.TerminalColor
	Pending    lipgloss.TerminalColor
	Processing lipgloss.TerminalColor
	Completed  lipgloss.TerminalColor
	Failed     lipgloss.TerminalColor
	Dim        lipgloss.TerminalColor
}

var (
	// DarkTUITheme is the default dashboard palette.
	DarkTUITheme = TUITheme{
		Text:       lipgloss.Color("#E0E0E0"),
		Border:     lipgloss.Color("#3A7BD5"),
		Accent:     lipgloss.Color("#00C2FF"),
		Pending:    lipgloss.Color("#8A8A8A"),
		Processing: lipgloss.Color("#FFB347"),
		Completed:  lipgloss.Color("#9ECE6A"),
		Failed:     lipgloss.Color("#FF4444"),
		Dim:        lipgloss.Color("#666666"),
	}

	// NoColorTUITheme renders with the terminal's default colors.
	NoColorTUITheme = TUITheme{
		Text:       lipgloss.NoColor{},
		Border:     lipgloss.NoColor{},
		Accent:     lipgloss.NoColor{},
		Pending:    lipgloss.NoColor{},
		Processing: lipgloss.NoColor{},
		Completed:  lipgloss.NoColor{},
		Failed:     lipgloss.NoColor{},
		Dim:        lipgloss.NoColor{},
	}
)

// GetCurrentTUITheme returns the dashboard palette matching the active theme.
func GetCurrentTUITheme() TUITheme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()

	if currentTheme.Name == NoColorTheme.Name {
		return NoColorTUITheme
	}
	return DarkTUITheme
}

// GetCurrentTheme returns the currently active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme activates a theme by name ("dark", "light" or "none"). Unknown
// names select the dark theme.
func SetTheme(name string) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	t, ok := themes[name]
	if !ok {
		t = DarkTheme
	}
	currentTheme = t
}

// InitTheme selects the theme from the --no-color flag and the NO_COLOR
// environment variable (https://no-color.org/).
func InitTheme(noColor bool) {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		noColor = true
	}
	if noColor {
		SetTheme(NoColorTheme.Name)
		return
	}
	SetTheme(DarkTheme.Name)
}
