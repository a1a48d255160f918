package tui

import (
	"fmt"
	"path"
	"strings"

	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/format"
)

// ResultsModel lists the per-file results of the displayed mode.
type ResultsModel struct {
	mode    experiment.Mode
	results []experiment.Result
	offset  int
	width   int
	height  int
}

// SetResults replaces the list. The scroll position is kept when the same
// mode is shown again.
func (r *ResultsModel) SetResults(mode experiment.Mode, results []experiment.Result) {
	if mode != r.mode {
		r.offset = 0
	}
	r.mode = mode
	r.results = results
	r.clampOffset()
}

// SetSize updates dimensions.
func (r *ResultsModel) SetSize(w, h int) {
	r.width = w
	r.height = h
	r.clampOffset()
}

// ScrollUp moves the window one row up.
func (r *ResultsModel) ScrollUp() {
	if r.offset > 0 {
		r.offset--
	}
}

// ScrollDown moves the window one row down.
func (r *ResultsModel) ScrollDown() {
	r.offset++
	r.clampOffset()
}

// visibleRows is the number of result rows that fit below the title and
// sparkline lines.
func (r ResultsModel) visibleRows() int {
	return max(r.height-2-2, 1)
}

func (r *ResultsModel) clampOffset() {
	maxOffset := max(len(r.results)-r.visibleRows(), 0)
	if r.offset > maxOffset {
		r.offset = maxOffset
	}
	if r.offset < 0 {
		r.offset = 0
	}
}

// View renders the results panel.
func (r ResultsModel) View() string {
	var rows []string
	if r.mode == "" {
		rows = append(rows, dimStyle.Render(" No completed experiment yet."))
	} else {
		rows = append(rows, fmt.Sprintf(" %s %s",
			titleStyle.Render(fmt.Sprintf("Results (%s)", r.mode)),
			dimStyle.Render(format.Plural(len(r.results), "file", "files"))))
		rows = append(rows, " "+sparklineStyle.Render(processingSparkline(r.results, max(r.width-4, 1))))

		end := min(r.offset+r.visibleRows(), len(r.results))
		nameWidth := max(r.width-4-12-2, 8)
		for _, res := range r.results[r.offset:end] {
			name := path.Base(res.ProcessedFile)
			if len(name) > nameWidth {
				name = name[:nameWidth-1] + "…"
			}
			rows = append(rows, fmt.Sprintf(" %s %s",
				fmt.Sprintf("%-*s", nameWidth, name),
				metricValueStyle.Render(format.FormatMillis(res.ProcessingTimeMS))))
		}
	}

	return panelStyle.
		Width(max(r.width-2, 0)).
		Height(max(r.height-2, 0)).
		Render(strings.Join(rows, "\n"))
}

// processingSparkline plots per-file processing times relative to the
// slowest file, keeping the most recent width entries.
func processingSparkline(results []experiment.Result, width int) string {
	if len(results) == 0 {
		return ""
	}
	if len(results) > width {
		results = results[len(results)-width:]
	}
	var slowest float64
	for _, res := range results {
		slowest = max(slowest, res.ProcessingTimeMS)
	}
	values := make([]float64, len(results))
	if slowest > 0 {
		for i, res := range results {
			values[i] = res.ProcessingTimeMS / slowest * 100
		}
	}
	return RenderSparkline(values)
}
