package orchestration

import (
	"context"
	"fmt"
	"io"
	"sync"

	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/experiment"
)

// ProgressBufferSize is the capacity of the state channel handed to a
// ProgressReporter. Updates are dropped rather than blocking the dispatcher
// when the reporter falls behind.
const ProgressBufferSize = 16

// ExecuteComparison runs the requested modes through o while a
// ProgressReporter displays intermediate states.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - o: The orchestrator holding the active batch.
//   - modes: The modes to run concurrently.
//   - reporter: The progress reporter (use NullProgressReporter for quiet mode).
//   - out: The io.Writer for progress output.
//
// Returns:
//   - State: The final state once every mode left PROCESSING.
//   - error: The first start, poll or context error, if any.
func ExecuteComparison(ctx context.Context, o *Orchestrator, modes []experiment.Mode, reporter ProgressReporter, out io.Writer) (State, error) {
	states := make(chan State, ProgressBufferSize)
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go reporter.DisplayProgress(&displayWg, states, out)

	unsubscribe := o.Subscribe(func(s State) {
		select {
		case states <- s:
		default:
		}
	})
	st, err := o.RunComparison(ctx, modes...)
	unsubscribe()
	close(states)
	displayWg.Wait()
	return st, err
}

// AnalyzeComparison presents the final state of a run and returns the exit
// code. A run succeeds when every requested mode COMPLETED.
//
// Parameters:
//   - state: The final orchestrator state.
//   - modes: The modes that were requested.
//   - runErr: The error returned by ExecuteComparison.
//   - presenter: The result presenter for display formatting.
//   - out: The io.Writer for the summary report.
//
// Returns:
//   - int: An exit code indicating success (0) or the type of failure.
func AnalyzeComparison(state State, modes []experiment.Mode, runErr error, presenter ResultPresenter, out io.Writer) int {
	presenter.PresentStatus(state, out)
	presenter.PresentComparison(state, out)
	presenter.PresentResults(state, out)

	if runErr != nil && apperrors.IsContextError(runErr) {
		return presenter.HandleError(runErr, out)
	}
	for _, m := range modes {
		s := state.Snapshot(m)
		if s.Status == experiment.StatusCompleted {
			continue
		}
		err := s.Err
		if err == nil {
			err = fmt.Errorf("%s experiment ended in status %s", m, s.Status)
		}
		return presenter.HandleError(err, out)
	}
	if runErr != nil {
		return presenter.HandleError(runErr, out)
	}
	return apperrors.ExitSuccess
}
