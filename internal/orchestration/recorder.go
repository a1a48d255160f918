package orchestration

import (
	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/polling"
)

// Recorder receives orchestration events for instrumentation.
// metrics.Collector implements it.
type Recorder interface {
	polling.Recorder
	// ExperimentStarted is called when a mode enters PROCESSING.
	ExperimentStarted(mode experiment.Mode)
	// ExperimentFinished is called on every terminal transition.
	ExperimentFinished(mode experiment.Mode, status experiment.Status, durationSeconds float64)
	// SetRunning tracks whether a mode is currently PROCESSING.
	SetRunning(mode experiment.Mode, running bool)
	// SpeedupObserved is called whenever a defined speedup is available.
	SpeedupObserved(speedup float64)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) RecordPoll(string)                                              {}
func (NopRecorder) ExperimentStarted(experiment.Mode)                              {}
func (NopRecorder) ExperimentFinished(experiment.Mode, experiment.Status, float64) {}
func (NopRecorder) SetRunning(experiment.Mode, bool)                               {}
func (NopRecorder) SpeedupObserved(float64)                                        {}
