package tui

import (
	"time"

	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/metrics"
	"github.com/agbru/pdcbench/internal/orchestration"
)

// StateMsg carries an orchestrator state published by Subscribe.
type StateMsg struct {
	State orchestration.State
}

// StartResultMsg reports the answer to a start request.
type StartResultMsg struct {
	Mode       experiment.Mode
	Err        error
	Generation uint64
}

// ActionDoneMsg reports the end of a reset or clear. Err is nil on success.
type ActionDoneMsg struct {
	Action     string
	Err        error
	Generation uint64
}

// TickMsg refreshes elapsed times and samples memory.
type TickMsg time.Time

// MemStatsMsg carries a memory reading of the client process.
type MemStatsMsg metrics.MemorySnapshot

// ContextCancelledMsg is sent when the dashboard context ends.
type ContextCancelledMsg struct {
	Err error
}
