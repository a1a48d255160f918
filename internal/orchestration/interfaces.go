package orchestration

import (
	"io"
	"sync"
)

// ProgressReporter displays state updates while experiments run.
// This interface keeps the orchestration layer independent from the
// presentation layer (spinner, TUI, quiet mode).
type ProgressReporter interface {
	// DisplayProgress consumes states until the channel is closed, then
	// calls wg.Done.
	DisplayProgress(wg *sync.WaitGroup, states <-chan State, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, states <-chan State, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, states <-chan State, out io.Writer) {
	f(wg, states, out)
}

// NullProgressReporter drains the channel without displaying anything.
// Useful for quiet mode or testing.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, states <-chan State, _ io.Writer) {
	defer wg.Done()
	for range states {
	}
}

// ResultPresenter renders the outcome of a comparison run.
type ResultPresenter interface {
	// PresentStatus writes one status line per lifecycle.
	PresentStatus(state State, out io.Writer)
	// PresentComparison writes the speedup and efficiency summary.
	PresentComparison(state State, out io.Writer)
	// PresentResults writes the per-file results table.
	PresentResults(state State, out io.Writer)
	// HandleError reports err and returns the matching exit code.
	HandleError(err error, out io.Writer) int
}
