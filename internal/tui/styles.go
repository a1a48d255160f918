package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/ui"
)

// Style variables for the TUI dashboard.
// Initialized from the ui theme system via initTUIStyles().
var (
	panelStyle       lipgloss.Style
	headerStyle      lipgloss.Style
	titleStyle       lipgloss.Style
	dimStyle         lipgloss.Style
	accentStyle      lipgloss.Style
	metricLabelStyle lipgloss.Style
	metricValueStyle lipgloss.Style
	footerKeyStyle   lipgloss.Style
	footerDescStyle  lipgloss.Style
	errorStyle       lipgloss.Style
	sparklineStyle   lipgloss.Style

	pendingStyle    lipgloss.Style
	processingStyle lipgloss.Style
	completedStyle  lipgloss.Style
	failedStyle     lipgloss.Style
)

func init() {
	initTUIStyles()
}

// initTUIStyles rebuilds all TUI styles from the current ui theme.
// Called at package init and again from Run() after InitTheme has been invoked.
func initTUIStyles() {
	t := ui.GetCurrentTUITheme()

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Foreground(t.Text)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent).
		Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent)

	dimStyle = lipgloss.NewStyle().
		Foreground(t.Dim)

	accentStyle = lipgloss.NewStyle().
		Foreground(t.Accent)

	metricLabelStyle = lipgloss.NewStyle().
		Foreground(t.Dim)

	metricValueStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	footerKeyStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	footerDescStyle = lipgloss.NewStyle().
		Foreground(t.Dim)

	errorStyle = lipgloss.NewStyle().
		Foreground(t.Failed).
		Bold(true)

	sparklineStyle = lipgloss.NewStyle().
		Foreground(t.Processing)

	pendingStyle = lipgloss.NewStyle().Foreground(t.Pending)
	processingStyle = lipgloss.NewStyle().Foreground(t.Processing).Bold(true)
	completedStyle = lipgloss.NewStyle().Foreground(t.Completed).Bold(true)
	failedStyle = lipgloss.NewStyle().Foreground(t.Failed).Bold(true)
}

// statusStyle returns the style used to render status.
func statusStyle(status experiment.Status) lipgloss.Style {
	switch status {
	case experiment.StatusProcessing:
		return processingStyle
	case experiment.StatusCompleted:
		return completedStyle
	case experiment.StatusFailed:
		return failedStyle
	default:
		return pendingStyle
	}
}
