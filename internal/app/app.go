package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agbru/pdcbench/internal/cli"
	"github.com/agbru/pdcbench/internal/config"
	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/logging"
	"github.com/agbru/pdcbench/internal/metrics"
	"github.com/agbru/pdcbench/internal/orchestration"
	"github.com/agbru/pdcbench/internal/polling"
	"github.com/agbru/pdcbench/internal/remote"
	"github.com/agbru/pdcbench/internal/session"
	"github.com/agbru/pdcbench/internal/tui"
	"github.com/agbru/pdcbench/internal/ui"
)

// Application represents the pdcbench application instance.
type Application struct {
	Config    config.AppConfig
	ErrWriter io.Writer
	// Store persists the active batch; defaults to a FileStore.
	Store session.Store
	// Input feeds the interactive session; defaults to os.Stdin.
	Input io.Reader
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithStore sets the session store used instead of the session file.
func WithStore(s session.Store) AppOption {
	return func(a *Application) { a.Store = s }
}

// WithInput sets the reader of the interactive session.
func WithInput(r io.Reader) AppOption {
	return func(a *Application) { a.Input = r }
}

// New creates a new Application instance by parsing command-line arguments.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter, Input: os.Stdin}
	for _, opt := range opts {
		opt(app)
	}

	programName := "pdcbench"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	return app, nil
}

// runtimeDeps are the components shared by every run mode.
type runtimeDeps struct {
	logger       logging.Logger
	client       *remote.Client
	collector    *metrics.Collector
	scheduler    *polling.Scheduler
	orchestrator *orchestration.Orchestrator
}

// Run executes the application based on the configured mode.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	ui.InitTheme(a.Config.NoColor)

	deps, err := a.wire()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}
	defer deps.orchestrator.Close()

	if a.Config.MetricsAddr != "" {
		stop, err := a.serveMetrics(deps)
		if err != nil {
			fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
			return apperrors.ExitErrorConfig
		}
		defer stop()
	}

	// Signals end every mode; -timeout only bounds the one-shot comparison,
	// dashboard and interactive sessions last until the user quits.
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	o := deps.orchestrator
	o.Restore()

	if a.Config.Clear {
		if err := o.Clear(); err != nil {
			return a.presenter(deps).HandleError(err, a.ErrWriter)
		}
		if !a.Config.Quiet {
			fmt.Fprintln(out, "Active batch cleared.")
		}
	}
	if a.Config.Reset {
		for _, m := range a.Config.Modes() {
			o.Reset(m)
		}
		if !a.Config.Quiet {
			fmt.Fprintln(out, "Experiments reset to PENDING.")
		}
	}

	if len(a.Config.Files) > 0 {
		if code := a.upload(ctx, o, deps, out); code != apperrors.ExitSuccess {
			return code
		}
	} else if (a.Config.Clear || a.Config.Reset) && !a.Config.TUI && !a.Config.Interactive {
		return apperrors.ExitSuccess
	}

	switch {
	case a.Config.TUI:
		return a.runTUI(ctx, o, deps)
	case a.Config.Interactive:
		return a.runInteractive(ctx, o, deps, out)
	}
	return a.runComparison(ctx, o, deps, out)
}

// wire builds the logger, the service client, the metrics collector and the
// orchestrator from the configuration.
func (a *Application) wire() (runtimeDeps, error) {
	logger := logging.New(a.ErrWriter, logging.Options{
		Level:     a.Config.LogLevel,
		Format:    a.Config.LogFormat,
		Component: "pdcbench",
	})

	client, err := remote.NewClient(a.Config.ServerURL,
		remote.WithMediaURL(a.Config.MediaURL),
		remote.WithTimeout(a.Config.RequestTimeout),
		remote.WithLogger(logger.With(logging.String("component", "remote"))))
	if err != nil {
		return runtimeDeps{}, err
	}

	store := a.Store
	if store == nil {
		path := a.Config.SessionFile
		if path == "" {
			path = session.DefaultPath()
		}
		store = session.NewFileStore(path, logger)
	}

	collector := metrics.NewCollector()
	scheduler := polling.New(client,
		polling.WithInterval(a.Config.PollInterval),
		polling.WithMaxConsecutiveErrors(a.Config.MaxPollErrors),
		polling.WithMaxDuration(a.Config.PollTimeout),
		polling.WithLogger(logger),
		polling.WithRecorder(collector))

	o := orchestration.New(client, store,
		orchestration.WithScheduler(scheduler),
		orchestration.WithLogger(logger),
		orchestration.WithRecorder(collector),
		orchestration.WithCoreCount(a.Config.Cores))

	return runtimeDeps{logger: logger, client: client, collector: collector, scheduler: scheduler, orchestrator: o}, nil
}

// serveMetrics exposes the collector on MetricsAddr until the returned stop
// function is called.
func (a *Application) serveMetrics(deps runtimeDeps) (stop func(), err error) {
	ln, err := net.Listen("tcp", a.Config.MetricsAddr)
	if err != nil {
		return nil, apperrors.NewConfigError("listen on metrics address %s: %v", a.Config.MetricsAddr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", deps.collector.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.logger.Error("metrics server stopped", err)
		}
	}()
	deps.logger.Info("serving metrics", logging.String("addr", ln.Addr().String()))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, nil
}

func (a *Application) presenter(deps runtimeDeps) cli.CLIResultPresenter {
	return cli.CLIResultPresenter{Resolver: deps.client, Verbose: a.Config.Verbose}
}

// upload reads the configured files and installs them as the active batch.
func (a *Application) upload(ctx context.Context, o *orchestration.Orchestrator, deps runtimeDeps, out io.Writer) int {
	files, err := cli.LoadFiles(a.Config.Files)
	if err != nil {
		return a.presenter(deps).HandleError(err, a.ErrWriter)
	}
	batch, err := o.Upload(ctx, files)
	if err != nil {
		return a.presenter(deps).HandleError(err, a.ErrWriter)
	}
	if !a.Config.Quiet {
		fmt.Fprintf(out, "Uploaded batch %s%s%s with %d file(s).\n", ui.ColorCyan(), batch.ID, ui.ColorReset(), len(batch.Files))
	}
	return apperrors.ExitSuccess
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, "pdcbench"); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runTUI launches the interactive TUI dashboard. Modes passed with --mode are
// started right away when a batch is active.
func (a *Application) runTUI(ctx context.Context, o *orchestration.Orchestrator, deps runtimeDeps) int {
	opts := tui.Options{Version: Version, Watches: deps.scheduler}
	if o.State().HasBatch && len(a.Config.Files) > 0 {
		opts.AutoStart = a.Config.Modes()
	}
	return tui.Run(ctx, o, opts)
}

// runInteractive starts the line-oriented command session.
func (a *Application) runInteractive(ctx context.Context, o *orchestration.Orchestrator, deps runtimeDeps, out io.Writer) int {
	repl := cli.NewREPL(o, cli.REPLConfig{
		WaitTimeout: a.Config.Timeout,
		Presenter:   a.presenter(deps),
	}, a.Input, out)
	repl.Start(ctx)
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return apperrors.ExitCodeFor(err)
	}
	return apperrors.ExitSuccess
}

// runComparison starts the configured modes against the active batch, waits
// for them and reports the outcome.
func (a *Application) runComparison(ctx context.Context, o *orchestration.Orchestrator, deps runtimeDeps, out io.Writer) int {
	ctx, cancel := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancel()

	var presenter orchestration.ResultPresenter = a.presenter(deps)
	if a.Config.Quiet {
		presenter = cli.QuietResultPresenter{ErrWriter: a.ErrWriter}
	}
	modes := a.Config.Modes()

	st := o.State()
	if !st.HasBatch {
		return presenter.HandleError(orchestration.ErrNoBatch, a.ErrWriter)
	}

	// Skip verbose output in quiet mode
	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, st.Batch, out)
		cli.PrintExecutionMode(modes, out)
	}

	// Choose progress reporter based on quiet mode
	var reporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
	progressOut := out
	if a.Config.Quiet {
		reporter = orchestration.NullProgressReporter{}
		progressOut = io.Discard
	}

	final, runErr := orchestration.ExecuteComparison(ctx, o, modes, reporter, progressOut)

	exitCode := orchestration.AnalyzeComparison(final, modes, runErr, presenter, out)

	summaryOut := out
	if a.Config.Quiet {
		summaryOut = io.Discard
	}

	if a.Config.OutputFile != "" {
		if err := cli.WriteReport(a.Config.OutputFile, cli.BuildReport(final, deps.client, time.Now())); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error saving report: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		if !a.Config.Quiet {
			fmt.Fprintf(out, "\n%s✓ Report saved to: %s%s%s\n", ui.ColorGreen(), ui.ColorCyan(), a.Config.OutputFile, ui.ColorReset())
		}
	}

	if a.Config.DownloadDir != "" && len(final.Results) > 0 {
		if _, err := cli.DownloadArtifacts(ctx, deps.client, final.Results, a.Config.DownloadDir, summaryOut); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error downloading artifacts: %v\n", err)
			if exitCode == apperrors.ExitSuccess {
				exitCode = apperrors.ExitErrorGeneric
			}
		}
	}

	return exitCode
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
