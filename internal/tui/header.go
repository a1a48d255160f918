package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/format"
)

// HeaderModel renders the top bar: title, version, active batch, elapsed time.
type HeaderModel struct {
	startTime time.Time
	now       time.Time
	version   string
	batch     experiment.Batch
	hasBatch  bool
	width     int
}

// NewHeaderModel creates a new header.
func NewHeaderModel(version string, now time.Time) HeaderModel {
	return HeaderModel{
		startTime: now,
		now:       now,
		version:   version,
	}
}

// SetBatch updates the displayed batch.
func (h *HeaderModel) SetBatch(b experiment.Batch, ok bool) {
	h.batch = b
	h.hasBatch = ok
}

// Tick advances the elapsed timer.
func (h *HeaderModel) Tick(now time.Time) {
	h.now = now
}

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) {
	h.width = w
}

// View renders the header.
func (h HeaderModel) View() string {
	titleText := "PDC Bench"
	if h.version != "" && h.version != "dev" {
		titleText += " " + h.version
	}
	pipe := dimStyle.Render(" | ")

	batch := dimStyle.Render("no active batch")
	if h.hasBatch {
		label := fmt.Sprintf("Batch %s", h.batch.ID)
		if h.batch.Name != "" {
			label += " " + h.batch.Name
		}
		batch = accentStyle.Render(label) + dimStyle.Render(" ("+format.Plural(len(h.batch.Files), "file", "files")+")")
	}

	elapsed := accentStyle.Render("Elapsed: " + format.FormatElapsed(h.now.Sub(h.startTime)))

	row := titleStyle.Render(titleText) + pipe + batch + pipe + elapsed
	if gap := h.width - 2 - lipgloss.Width(row); gap > 0 {
		row += strings.Repeat(" ", gap)
	}
	return headerStyle.Width(h.width).Render(row)
}
