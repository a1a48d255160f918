package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/pdcbench/internal/format"
	"github.com/agbru/pdcbench/internal/metrics"
)

// heapHistory is the number of heap samples kept for the sparkline.
const heapHistory = 60

// MetricsModel displays runtime memory metrics of the client.
type MetricsModel struct {
	snap   metrics.MemorySnapshot
	heap   *History
	width  int
	height int
}

// NewMetricsModel creates a new metrics panel.
func NewMetricsModel() MetricsModel {
	return MetricsModel{heap: NewHistory(heapHistory)}
}

// SetSize updates dimensions.
func (m *MetricsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if w > 6 {
		m.heap.SetLimit(w - 6)
	}
}

// UpdateMemStats stores a reading and records heap usage in percent of the
// heap obtained from the OS.
func (m *MetricsModel) UpdateMemStats(snap metrics.MemorySnapshot) {
	m.snap = snap
	m.heap.Add(snap.HeapUsage())
}

// View renders the metrics panel.
func (m MetricsModel) View() string {
	colWidth := max(m.width-4, 0)
	rows := []string{
		" " + titleStyle.Render("Client"),
		formatMetricCol("Heap:", format.FormatBytes(m.snap.HeapAlloc)+" / "+format.FormatBytes(m.snap.HeapSys), colWidth),
		formatMetricCol("Sys:", format.FormatBytes(m.snap.Sys), colWidth),
		formatMetricCol("GC:", fmt.Sprintf("%d (%s)", m.snap.NumGC, m.snap.GCPause().Round(time.Microsecond)), colWidth),
		formatMetricCol("Goroutines:", fmt.Sprintf("%d", m.snap.Goroutines), colWidth),
		formatMetricCol("Watches:", fmt.Sprintf("%d", m.snap.ActiveWatches), colWidth),
		"",
		" " + metricLabelStyle.Render("Heap use"),
		" " + sparklineStyle.Render(RenderSparkline(m.heap.Values())),
	}
	return panelStyle.
		Width(max(m.width-2, 0)).
		Height(max(m.height-2, 0)).
		Render(strings.Join(rows, "\n"))
}

func formatMetricCol(label, value string, colWidth int) string {
	cell := fmt.Sprintf(" %s %s",
		metricLabelStyle.Render(fmt.Sprintf("%-12s", label)),
		metricValueStyle.Render(value))
	// Pad to fixed column width using lipgloss-aware width
	visible := lipgloss.Width(cell)
	if visible < colWidth {
		cell += strings.Repeat(" ", colWidth-visible)
	}
	return cell
}
