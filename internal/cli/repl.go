package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/orchestration"
	"github.com/agbru/pdcbench/internal/ui"
)

// Controller is the part of the orchestrator driven interactively.
// *orchestration.Orchestrator implements it.
type Controller interface {
	Upload(ctx context.Context, files []experiment.UploadFile) (experiment.Batch, error)
	Clear() error
	Start(ctx context.Context, mode experiment.Mode) error
	Wait(ctx context.Context, mode experiment.Mode) (experiment.Snapshot, error)
	Reset(mode experiment.Mode)
	State() orchestration.State
}

// REPLConfig holds configuration for the interactive session.
type REPLConfig struct {
	// WaitTimeout bounds the "wait" command.
	WaitTimeout time.Duration
	// Presenter renders status, comparison and results.
	Presenter orchestration.ResultPresenter
	// LoadFiles reads files for "upload"; defaults to LoadFiles.
	LoadFiles func(paths []string) ([]experiment.UploadFile, error)
}

// REPL is a line-oriented control surface for the orchestrator, usable
// where the full-screen dashboard is not (pipes, dumb terminals).
type REPL struct {
	config REPLConfig
	ctrl   Controller
	in     io.Reader
	out    io.Writer
}

// NewREPL creates a session reading commands from in and writing to out.
func NewREPL(ctrl Controller, config REPLConfig, in io.Reader, out io.Writer) *REPL {
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = 30 * time.Minute
	}
	if config.Presenter == nil {
		config.Presenter = CLIResultPresenter{}
	}
	if config.LoadFiles == nil {
		config.LoadFiles = LoadFiles
	}
	return &REPL{config: config, ctrl: ctrl, in: in, out: out}
}

// Start reads and executes commands until "quit", EOF or ctx ends.
// Experiments started here are bound to ctx.
func (r *REPL) Start(ctx context.Context) {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(r.in)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		fmt.Fprint(r.out, ui.ColorGreen()+"pdc> "+ui.ColorReset())
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out, "\nSession ended.")
			return
		case err := <-readErr:
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(r.out, "%sRead error: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
			}
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		case line := <-lines:
			if !r.processCommand(ctx, strings.TrimSpace(line)) {
				return
			}
		}
	}
}

func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s╔══════════════════════════════════════════════╗%s\n", ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s║%s  %sSerial vs Parallel Benchmark - Interactive%s  %s║%s\n",
		ui.ColorCyan(), ui.ColorReset(), ui.ColorBold(), ui.ColorReset(), ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s╚══════════════════════════════════════════════╝%s\n\n", ui.ColorCyan(), ui.ColorReset())
}

func (r *REPL) printHelp() {
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ui.ColorBold(), ui.ColorReset())
	for _, c := range [][2]string{
		{"upload <files...>", "Upload files as the new active batch"},
		{"start <mode>", "Start serial, parallel or both"},
		{"wait [mode]", "Block until the mode (default: all running) finishes"},
		{"status", "Show both experiments"},
		{"compare", "Show speedup and efficiency"},
		{"results", "Show the displayed results"},
		{"reset [mode]", "Stop and reset a mode (default: both)"},
		{"clear", "Forget the active batch"},
		{"help", "Display this help"},
		{"quit", "Exit interactive mode"},
	} {
		fmt.Fprintf(r.out, "  %s%-18s%s - %s\n", ui.ColorYellow(), c[0], ui.ColorReset(), c[1])
	}
}

// processCommand executes one command line. It returns false when the
// session should end.
func (r *REPL) processCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "upload", "u":
		r.cmdUpload(ctx, args)
	case "start", "s":
		r.cmdStart(ctx, args)
	case "wait", "w":
		r.cmdWait(ctx, args)
	case "status", "st":
		r.config.Presenter.PresentStatus(r.ctrl.State(), r.out)
	case "compare", "cmp":
		r.config.Presenter.PresentComparison(r.ctrl.State(), r.out)
	case "results", "r":
		st := r.ctrl.State()
		if st.ResultsMode == "" {
			fmt.Fprintln(r.out, "No completed experiment yet.")
		} else {
			r.config.Presenter.PresentResults(st, r.out)
		}
	case "reset":
		r.cmdReset(args)
	case "clear":
		if err := r.ctrl.Clear(); err != nil {
			r.printError(err)
		} else {
			fmt.Fprintln(r.out, "Active batch cleared.")
		}
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ui.ColorGreen(), ui.ColorReset())
		return false
	default:
		fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", ui.ColorRed(), cmd, ui.ColorReset())
		fmt.Fprintf(r.out, "Type %shelp%s to see available commands.\n", ui.ColorYellow(), ui.ColorReset())
	}
	return true
}

func (r *REPL) cmdUpload(ctx context.Context, args []string) {
	files, err := r.config.LoadFiles(args)
	if err != nil {
		r.printError(err)
		return
	}
	batch, err := r.ctrl.Upload(ctx, files)
	if err != nil {
		r.printError(err)
		return
	}
	fmt.Fprintf(r.out, "Uploaded batch %s%s%s with %d file(s).\n", ui.ColorCyan(), batch.ID, ui.ColorReset(), len(batch.Files))
}

func (r *REPL) cmdStart(ctx context.Context, args []string) {
	modes, err := parseModes(args, experiment.Modes())
	if err != nil {
		r.printError(err)
		return
	}
	for _, m := range modes {
		if err := r.ctrl.Start(ctx, m); err != nil {
			r.printError(fmt.Errorf("%s: %w", m, err))
			continue
		}
		fmt.Fprintf(r.out, "%s started.\n", m)
	}
}

func (r *REPL) cmdWait(ctx context.Context, args []string) {
	modes, err := parseModes(args, r.ctrl.State().Active())
	if err != nil {
		r.printError(err)
		return
	}
	if len(modes) == 0 {
		fmt.Fprintln(r.out, "Nothing is running.")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, r.config.WaitTimeout)
	defer cancel()
	for _, m := range modes {
		s, err := r.ctrl.Wait(ctx, m)
		if err != nil {
			r.printError(fmt.Errorf("%s: %w", m, err))
			continue
		}
		fmt.Fprintf(r.out, "%s %s\n", m, ui.Colorize(ui.StatusColor(s.Status), string(s.Status)))
	}
}

func (r *REPL) cmdReset(args []string) {
	modes, err := parseModes(args, experiment.Modes())
	if err != nil {
		r.printError(err)
		return
	}
	for _, m := range modes {
		r.ctrl.Reset(m)
	}
	fmt.Fprintln(r.out, "Reset done.")
}

func (r *REPL) printError(err error) {
	fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
}

// parseModes maps "serial", "parallel" or "both" to modes; no argument
// selects def.
func parseModes(args []string, def []experiment.Mode) ([]experiment.Mode, error) {
	if len(args) == 0 {
		return def, nil
	}
	if strings.EqualFold(args[0], "both") || strings.EqualFold(args[0], "all") {
		return experiment.Modes(), nil
	}
	m, err := experiment.ParseMode(args[0])
	if err != nil {
		return nil, err
	}
	return []experiment.Mode{m}, nil
}
