package cli

import (
	"errors"
	"fmt"
	"io"
	"path"
	"text/tabwriter"

	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/format"
	"github.com/agbru/pdcbench/internal/orchestration"
	"github.com/agbru/pdcbench/internal/ui"
)

// ArtifactResolver turns a processed path into an absolute URL.
// remote.Client implements it.
type ArtifactResolver interface {
	ResolveArtifact(path string) string
}

// CLIResultPresenter implements orchestration.ResultPresenter for terminal
// output.
type CLIResultPresenter struct {
	// Resolver, when set, is used to print artifact URLs.
	Resolver ArtifactResolver
	// Verbose prints artifact URLs for every result.
	Verbose bool
	// MaxRows bounds the results table unless Verbose is set. Zero means
	// DefaultMaxRows.
	MaxRows int
}

// DefaultMaxRows is the number of result rows printed without --verbose.
const DefaultMaxRows = 20

var _ orchestration.ResultPresenter = CLIResultPresenter{}

// PresentStatus writes one line per lifecycle.
func (p CLIResultPresenter) PresentStatus(st orchestration.State, out io.Writer) {
	fmt.Fprintf(out, "\n%s--- Experiments ---%s\n", ui.ColorBold(), ui.ColorReset())
	if st.HasBatch {
		fmt.Fprintf(out, "Batch %s%s%s", ui.ColorCyan(), st.Batch.ID, ui.ColorReset())
		if st.Batch.Name != "" {
			fmt.Fprintf(out, " (%s)", st.Batch.Name)
		}
		fmt.Fprintf(out, ", %s\n", format.Plural(len(st.Batch.Files), "file", "files"))
	}

	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "Mode\tStatus\tExperiment\tDuration\tCores")
	for _, m := range experiment.Modes() {
		s := st.Snapshot(m)
		status := s.Status
		if status == "" {
			status = experiment.StatusPending
		}
		id, duration, cores := "-", "-", "-"
		if s.ExperimentID != "" {
			id = string(s.ExperimentID)
		}
		if s.Completed() {
			duration = format.FormatSeconds(s.Duration)
		}
		if s.CPUCoresUsed > 0 {
			cores = fmt.Sprint(s.CPUCoresUsed)
		}
		// Colors go around the whole row so tabwriter widths stay consistent.
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s%s\n", ui.StatusColor(status), m, status, id, duration, cores, ui.ColorReset())
	}
	tw.Flush()

	for _, m := range experiment.Modes() {
		if s := st.Snapshot(m); s.Status == experiment.StatusFailed && s.Err != nil {
			fmt.Fprintf(out, "%s%s: %v%s\n", ui.ColorRed(), m, s.Err, ui.ColorReset())
		}
	}
}

// PresentComparison writes the speedup and efficiency, or why they are not
// available yet.
func (p CLIResultPresenter) PresentComparison(st orchestration.State, out io.Writer) {
	c := st.Comparison
	fmt.Fprintf(out, "\n%s--- Comparison ---%s\n", ui.ColorBold(), ui.ColorReset())
	if !c.SpeedupDefined {
		fmt.Fprintf(out, "Speedup: %sn/a%s (both experiments must complete)\n", ui.ColorGrey(), ui.ColorReset())
		return
	}
	fmt.Fprintf(out, "Serial:     %s\n", format.FormatSeconds(c.SerialSeconds))
	fmt.Fprintf(out, "Parallel:   %s\n", format.FormatSeconds(c.ParallelSeconds))
	fmt.Fprintf(out, "Speedup:    %s%sx%s\n", ui.ColorGreen(), orchestration.FormatSpeedup(c.Speedup), ui.ColorReset())
	if c.EfficiencyDefined {
		fmt.Fprintf(out, "Efficiency: %s%s%s (%d cores)\n", ui.ColorGreen(), orchestration.FormatEfficiency(c.Efficiency), ui.ColorReset(), c.Cores)
	}
}

// PresentResults writes the per-file results of the displayed mode.
func (p CLIResultPresenter) PresentResults(st orchestration.State, out io.Writer) {
	if st.ResultsMode == "" {
		return
	}
	fmt.Fprintf(out, "\n%s--- Results (%s) ---%s\n", ui.ColorBold(), st.ResultsMode, ui.ColorReset())
	fmt.Fprintf(out, "%s processed\n", format.Plural(len(st.Results), "file", "files"))
	if len(st.Results) == 0 {
		return
	}

	limit := p.MaxRows
	if limit <= 0 {
		limit = DefaultMaxRows
	}
	if p.Verbose {
		limit = len(st.Results)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "File\tTime\tSpectrogram")
	for i, r := range st.Results {
		if i == limit {
			break
		}
		spectrogram := "-"
		if r.SpectrogramPath != "" {
			spectrogram = path.Base(r.SpectrogramPath)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", path.Base(r.ProcessedFile), format.FormatMillis(r.ProcessingTimeMS), spectrogram)
	}
	tw.Flush()
	if limit < len(st.Results) {
		fmt.Fprintf(out, "%s... %d more (use --verbose to list all)%s\n", ui.ColorGrey(), len(st.Results)-limit, ui.ColorReset())
	}

	if p.Verbose && p.Resolver != nil {
		fmt.Fprintln(out)
		for _, r := range st.Results {
			fmt.Fprintf(out, "%s%s%s\n", ui.ColorCyan(), p.Resolver.ResolveArtifact(r.ProcessedFile), ui.ColorReset())
			if r.SpectrogramPath != "" {
				fmt.Fprintf(out, "%s%s%s\n", ui.ColorGrey(), p.Resolver.ResolveArtifact(r.SpectrogramPath), ui.ColorReset())
			}
		}
	}
}

// HandleError prints err with a hint matching its kind and returns the exit
// code.
func (p CLIResultPresenter) HandleError(err error, out io.Writer) int {
	code := apperrors.ExitCodeFor(err)
	var hint string
	var apiErr apperrors.APIError
	switch {
	case code == apperrors.ExitErrorTimeout:
		hint = "the run exceeded its time limit; raise --timeout or --poll-timeout"
	case code == apperrors.ExitErrorCanceled:
		hint = "the run was canceled"
	case errors.Is(err, orchestration.ErrNoBatch):
		hint = "upload files first: pdcbench file1.wav file2.wav"
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 500:
		hint = "the processing service reported an internal error"
	}
	fmt.Fprintf(out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
	if hint != "" {
		fmt.Fprintf(out, "%s%s%s\n", ui.ColorGrey(), hint, ui.ColorReset())
	}
	return code
}

// QuietResultPresenter prints only the speedup on success and errors to
// ErrWriter, for scripting with --quiet.
type QuietResultPresenter struct {
	ErrWriter io.Writer
}

var _ orchestration.ResultPresenter = QuietResultPresenter{}

// PresentStatus prints nothing.
func (QuietResultPresenter) PresentStatus(orchestration.State, io.Writer) {}

// PresentComparison prints the bare speedup when it is defined.
func (QuietResultPresenter) PresentComparison(st orchestration.State, out io.Writer) {
	if st.Comparison.SpeedupDefined {
		fmt.Fprintln(out, orchestration.FormatSpeedup(st.Comparison.Speedup))
	}
}

// PresentResults prints nothing.
func (QuietResultPresenter) PresentResults(orchestration.State, io.Writer) {}

// HandleError writes the error to ErrWriter and returns the exit code.
func (q QuietResultPresenter) HandleError(err error, _ io.Writer) int {
	w := q.ErrWriter
	if w == nil {
		w = io.Discard
	}
	return CLIResultPresenter{}.HandleError(err, w)
}
