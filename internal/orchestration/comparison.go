package orchestration

import (
	"fmt"
	"math"

	"github.com/agbru/pdcbench/internal/experiment"
)

// Comparison holds the derived metrics of a SERIAL/PARALLEL pair.
type Comparison struct {
	SerialSeconds   float64
	ParallelSeconds float64
	// Speedup is serial/parallel, valid only when SpeedupDefined.
	Speedup        float64
	SpeedupDefined bool
	// Efficiency is an estimate in percent against an assumed core count,
	// not a measurement of the service host.
	Efficiency        float64
	EfficiencyDefined bool
	Cores             int
}

// SpeedupFromDurations returns serial/parallel. The ratio is undefined unless
// both durations are positive and finite, so a zero parallel duration never
// yields +Inf.
func SpeedupFromDurations(serial, parallel float64) (float64, bool) {
	if !positiveFinite(serial) || !positiveFinite(parallel) {
		return 0, false
	}
	return serial / parallel, true
}

// Speedup derives the ratio from two lifecycle snapshots. Both must be
// COMPLETED with a recorded duration.
func Speedup(serial, parallel experiment.Snapshot) (float64, bool) {
	if !serial.Completed() || !parallel.Completed() {
		return 0, false
	}
	return SpeedupFromDurations(serial.Duration, parallel.Duration)
}

// Efficiency returns speedup/cores*100.
func Efficiency(speedup float64, cores int) (float64, bool) {
	if cores <= 0 || !positiveFinite(speedup) {
		return 0, false
	}
	return speedup / float64(cores) * 100, true
}

// Compare derives every metric available from the two snapshots.
func Compare(serial, parallel experiment.Snapshot, cores int) Comparison {
	c := Comparison{Cores: cores}
	if serial.Completed() {
		c.SerialSeconds = serial.Duration
	}
	if parallel.Completed() {
		c.ParallelSeconds = parallel.Duration
	}
	c.Speedup, c.SpeedupDefined = Speedup(serial, parallel)
	if c.SpeedupDefined {
		c.Efficiency, c.EfficiencyDefined = Efficiency(c.Speedup, cores)
	}
	return c
}

// FormatSpeedup renders a speedup with two decimals, e.g. "4.00".
func FormatSpeedup(v float64) string { return fmt.Sprintf("%.2f", v) }

// FormatEfficiency renders an efficiency with one decimal, e.g. "50.0%".
func FormatEfficiency(v float64) string { return fmt.Sprintf("%.1f%%", v) }

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
