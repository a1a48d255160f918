package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/agbru/pdcbench/internal/config"
	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/format"
	"github.com/agbru/pdcbench/internal/ui"
)

// PrintExecutionConfig displays the service endpoint, the active batch and
// the polling policy.
//
// Parameters:
//   - cfg: The application configuration.
//   - batch: The active batch.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, batch experiment.Batch, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Service: %s%s%s, timeout %s%s%s.\n",
		ui.ColorCyan(), cfg.ServerURL, ui.ColorReset(), ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Batch: %s%s%s", ui.ColorCyan(), batch.ID, ui.ColorReset())
	if batch.Name != "" {
		fmt.Fprintf(out, " %q", batch.Name)
	}
	fmt.Fprintf(out, " with %s.\n", format.Plural(len(batch.Files), "file", "files"))

	policy := "retry forever"
	if cfg.MaxPollErrors > 0 {
		policy = fmt.Sprintf("fail after %d consecutive errors", cfg.MaxPollErrors)
	}
	fmt.Fprintf(out, "Polling: every %s%s%s, %s", ui.ColorYellow(), cfg.PollInterval, ui.ColorReset(), policy)
	if cfg.PollTimeout > 0 {
		fmt.Fprintf(out, ", limit %s", cfg.PollTimeout)
	}
	fmt.Fprintln(out, ".")
}

// PrintExecutionMode displays which experiments are about to run.
//
// Parameters:
//   - modes: The modes that will be started.
//   - out: The writer for standard output.
func PrintExecutionMode(modes []experiment.Mode, out io.Writer) {
	var desc string
	if len(modes) > 1 {
		names := make([]string, len(modes))
		for i, m := range modes {
			names[i] = string(m)
		}
		desc = "Concurrent " + strings.Join(names, " and ") + " experiments"
	} else if len(modes) == 1 {
		desc = fmt.Sprintf("Single %s%s%s experiment", ui.ColorGreen(), modes[0], ui.ColorReset())
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", desc)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
