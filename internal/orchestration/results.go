package orchestration

import "github.com/agbru/pdcbench/internal/experiment"

// SelectResults picks the per-file results to display. PARALLEL results win
// when both modes completed; otherwise whichever completed is used. With no
// completed mode the returned mode is empty and the slice is nil.
func SelectResults(serial, parallel experiment.Snapshot) (experiment.Mode, []experiment.Result) {
	switch {
	case parallel.Status == experiment.StatusCompleted:
		return experiment.ModeParallel, append([]experiment.Result(nil), parallel.Results...)
	case serial.Status == experiment.StatusCompleted:
		return experiment.ModeSerial, append([]experiment.Result(nil), serial.Results...)
	}
	return "", nil
}
