//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/format"
	"github.com/agbru/pdcbench/internal/orchestration"
	"github.com/agbru/pdcbench/internal/ui"
)

// ProgressRefreshRate is the spinner frame period. The elapsed time of
// running experiments is refreshed at the same rate.
const ProgressRefreshRate = 200 * time.Millisecond

// Spinner abstracts the terminal spinner so DisplayProgress can be tested
// without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

// UpdateSuffix goes through Lock so it does not race with the animation
// goroutine.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[14], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// CLIProgressReporter implements orchestration.ProgressReporter with a
// spinner whose suffix shows both lifecycles.
type CLIProgressReporter struct {
	// Now is used to compute elapsed times; defaults to time.Now.
	Now func() time.Time
}

var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress consumes states until the channel closes, then prints the
// last progress line.
func (r CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, states <-chan orchestration.State, out io.Writer) {
	defer wg.Done()
	now := r.Now
	if now == nil {
		now = time.Now
	}

	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	var last orchestration.State
	var seen bool
	for {
		select {
		case st, ok := <-states:
			if !ok {
				s.Stop()
				if seen {
					fmt.Fprintln(out, FormatProgressLine(last, now()))
				}
				return
			}
			last, seen = st, true
			s.UpdateSuffix(" " + FormatProgressLine(st, now()))
		case <-ticker.C:
			if seen {
				s.UpdateSuffix(" " + FormatProgressLine(last, now()))
			}
		}
	}
}

// FormatProgressLine renders one line summarizing both lifecycles, e.g.
// "SERIAL PROCESSING 0:12 | PARALLEL COMPLETED 2.50 s".
func FormatProgressLine(st orchestration.State, now time.Time) string {
	parts := make([]string, 0, 2)
	for _, m := range experiment.Modes() {
		parts = append(parts, formatModeProgress(st.Snapshot(m), m, now))
	}
	return strings.Join(parts, " | ")
}

func formatModeProgress(s experiment.Snapshot, m experiment.Mode, now time.Time) string {
	status := s.Status
	if status == "" {
		status = experiment.StatusPending
	}
	line := fmt.Sprintf("%s %s", m, ui.Colorize(ui.StatusColor(status), string(status)))
	switch {
	case s.Running() && !s.StartedAt.IsZero():
		line += " " + format.FormatElapsed(now.Sub(s.StartedAt))
	case s.Completed():
		line += " " + format.FormatSeconds(s.Duration)
	}
	return line
}
