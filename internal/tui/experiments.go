package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/format"
	"github.com/agbru/pdcbench/internal/orchestration"
)

// ExperimentsModel shows both lifecycles and the derived comparison.
type ExperimentsModel struct {
	state  orchestration.State
	now    time.Time
	width  int
	height int
}

// SetState replaces the displayed state.
func (e *ExperimentsModel) SetState(st orchestration.State) {
	e.state = st
}

// Tick updates the clock used for elapsed times.
func (e *ExperimentsModel) Tick(now time.Time) {
	e.now = now
}

// SetSize updates dimensions.
func (e *ExperimentsModel) SetSize(w, h int) {
	e.width = w
	e.height = h
}

// View renders the experiments panel.
func (e ExperimentsModel) View() string {
	var rows []string
	for _, m := range experiment.Modes() {
		rows = append(rows, e.modeRow(m))
	}

	rows = append(rows, "")
	c := e.state.Comparison
	if c.SpeedupDefined {
		rows = append(rows, fmt.Sprintf(" %s %s",
			metricLabelStyle.Render(fmt.Sprintf("%-12s", "Speedup:")),
			metricValueStyle.Render(orchestration.FormatSpeedup(c.Speedup)+"x")))
		if c.EfficiencyDefined {
			rows = append(rows, fmt.Sprintf(" %s %s %s",
				metricLabelStyle.Render(fmt.Sprintf("%-12s", "Efficiency:")),
				metricValueStyle.Render(orchestration.FormatEfficiency(c.Efficiency)),
				dimStyle.Render(fmt.Sprintf("(%d cores)", c.Cores))))
		}
	} else {
		rows = append(rows, fmt.Sprintf(" %s %s",
			metricLabelStyle.Render(fmt.Sprintf("%-12s", "Speedup:")),
			dimStyle.Render("n/a")))
	}

	for _, m := range experiment.Modes() {
		if s := e.state.Snapshot(m); s.Status == experiment.StatusFailed && s.Err != nil {
			rows = append(rows, errorStyle.Render(fmt.Sprintf(" %s: %v", m, s.Err)))
		}
	}

	return panelStyle.
		Width(max(e.width-2, 0)).
		Height(max(e.height-2, 0)).
		Render(strings.Join(rows, "\n"))
}

func (e ExperimentsModel) modeRow(m experiment.Mode) string {
	s := e.state.Snapshot(m)
	status := s.Status
	if status == "" {
		status = experiment.StatusPending
	}

	timing := "-"
	switch {
	case s.Running() && !s.StartedAt.IsZero():
		timing = format.FormatElapsed(e.now.Sub(s.StartedAt))
	case s.Completed():
		timing = format.FormatSeconds(s.Duration)
	}

	id := "-"
	if s.ExperimentID != "" {
		id = "#" + string(s.ExperimentID)
	}

	return fmt.Sprintf(" %s %s %s %s",
		titleStyle.Render(fmt.Sprintf("%-9s", m)),
		statusStyle(status).Render(fmt.Sprintf("%-11s", status)),
		metricValueStyle.Render(fmt.Sprintf("%-10s", timing)),
		dimStyle.Render(id))
}
