// Package config parses the command line and environment into an AppConfig.
//
// Values are resolved with the priority: CLI flags > PDCBENCH_* environment
// variables (optionally read from a .env file) > defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/experiment"
)

const (
	// EnvPrefix is the prefix of every environment variable override.
	EnvPrefix = "PDCBENCH_"

	// DefaultServerURL is the API root of a locally running service.
	DefaultServerURL = "http://127.0.0.1:8000/api"
	// DefaultMediaURL is where the service serves processed artifacts.
	DefaultMediaURL = "http://127.0.0.1:8000/media/"
	// DefaultEnvFile is loaded when present.
	DefaultEnvFile = ".env"

	// DefaultCoreCount is the core count used for efficiency when the
	// service's own figure is not configured. It matches the worker pool size
	// of the reference deployment.
	DefaultCoreCount = 8

	// DefaultPollInterval is the period between two status queries.
	DefaultPollInterval = time.Second
	// DefaultTimeout bounds a one-shot comparison run.
	DefaultTimeout = 30 * time.Minute
	// DefaultRequestTimeout bounds a single HTTP request.
	DefaultRequestTimeout = 30 * time.Second

	// ModeBoth runs SERIAL and PARALLEL concurrently.
	ModeBoth = "both"
)

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// ServerURL is the API root of the processing service.
	ServerURL string
	// MediaURL is the base URL processed artifacts are resolved against.
	MediaURL string
	// SessionFile overrides the location of the persisted active batch.
	SessionFile string
	// EnvFile is the dotenv file read before environment overrides.
	EnvFile string

	// Mode selects which experiments to run: serial, parallel or both.
	Mode string
	// Files are uploaded as a new batch before the run.
	Files []string
	// Clear forgets the persisted batch and exits unless files are given.
	Clear bool
	// Reset returns both lifecycles to PENDING without running anything.
	Reset bool
	// Cores is the core count used to derive parallel efficiency.
	Cores int

	// PollInterval is the period between two status queries.
	PollInterval time.Duration
	// MaxPollErrors fails an experiment after that many consecutive failed
	// status queries. Zero keeps polling through errors.
	MaxPollErrors int
	// PollTimeout fails an experiment still PROCESSING after that long.
	// Zero disables the limit.
	PollTimeout time.Duration
	// Timeout bounds a one-shot comparison; -tui and -i sessions ignore it
	// except as the bound of the REPL "wait" command.
	Timeout time.Duration
	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration

	// OutputFile receives a JSON or YAML report, chosen by extension.
	OutputFile string
	// DownloadDir receives the processed artifacts of the displayed results.
	DownloadDir string
	// MetricsAddr, when set, serves Prometheus metrics on that address.
	MetricsAddr string

	// LogLevel is one of debug, info, warn, error, disabled.
	LogLevel string
	// LogFormat is console or json.
	LogFormat string
	// Quiet suppresses progress and tables; only errors are printed.
	Quiet bool
	// Verbose prints every result row and artifact URL.
	Verbose bool
	// NoColor disables ANSI colors.
	NoColor bool
	// TUI launches the interactive dashboard.
	TUI bool
	// Interactive starts a line-oriented command session.
	Interactive bool
	// Completion prints a shell completion script for that shell and exits.
	Completion string
}

// Modes returns the experiment modes selected by Mode.
func (c AppConfig) Modes() []experiment.Mode {
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case "", ModeBoth:
		return experiment.Modes()
	}
	m, err := experiment.ParseMode(c.Mode)
	if err != nil {
		return nil
	}
	return []experiment.Mode{m}
}

// Validate checks the semantic validity of the configuration.
func (c AppConfig) Validate() error {
	for name, raw := range map[string]string{"server": c.ServerURL, "media": c.MediaURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return apperrors.NewConfigError("invalid --%s URL %q: expected http(s)://host[/path]", name, raw)
		}
	}
	if len(c.Modes()) == 0 {
		return apperrors.NewConfigError("unrecognized mode: %q. Valid modes are: serial, parallel, both", c.Mode)
	}
	if c.Cores <= 0 {
		return apperrors.NewConfigError("--cores must be positive, got %d", c.Cores)
	}
	if c.PollInterval <= 0 {
		return apperrors.NewConfigError("--poll-interval must be positive, got %s", c.PollInterval)
	}
	if c.MaxPollErrors < 0 {
		return apperrors.NewConfigError("--max-poll-errors cannot be negative")
	}
	if c.PollTimeout < 0 {
		return apperrors.NewConfigError("--poll-timeout cannot be negative")
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("--timeout must be positive, got %s", c.Timeout)
	}
	if c.RequestTimeout <= 0 {
		return apperrors.NewConfigError("--request-timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.OutputFile != "" {
		switch strings.ToLower(filepath.Ext(c.OutputFile)) {
		case ".json", ".yaml", ".yml":
		default:
			return apperrors.NewConfigError("--output must end in .json, .yaml or .yml, got %q", c.OutputFile)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return apperrors.NewConfigError("--log-format must be console or json, got %q", c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error", "disabled":
	default:
		return apperrors.NewConfigError("unknown --log-level %q", c.LogLevel)
	}
	switch c.Completion {
	case "", "bash", "zsh", "fish":
	default:
		return apperrors.NewConfigError("unsupported shell %q for --completion: use bash, zsh or fish", c.Completion)
	}
	if c.TUI && c.Quiet {
		return apperrors.NewConfigError("--tui and --quiet cannot be combined")
	}
	if c.TUI && c.Interactive {
		return apperrors.NewConfigError("--tui and --interactive cannot be combined")
	}
	return nil
}

// ParseConfig parses the command-line arguments into an AppConfig. On
// --help it returns flag.ErrHelp after printing usage to errorWriter.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	fs.Usage = func() {
		fmt.Fprintf(errorWriter, "Usage: %s [flags] [audio files...]\n\n", programName)
		fmt.Fprintln(errorWriter, "Runs SERIAL and PARALLEL processing experiments on a batch and compares them.")
		fmt.Fprintln(errorWriter, "Files given as arguments are uploaded as a new active batch first.")
		fmt.Fprintln(errorWriter, "\nFlags:")
		fs.PrintDefaults()
	}

	config := AppConfig{}
	fs.StringVar(&config.ServerURL, "server", DefaultServerURL, "API root of the processing service.")
	fs.StringVar(&config.MediaURL, "media", DefaultMediaURL, "Base URL of processed artifacts.")
	fs.StringVar(&config.SessionFile, "session", "", "Path of the persisted active batch (default: user config dir).")
	fs.StringVar(&config.EnvFile, "env-file", DefaultEnvFile, "Dotenv file read for PDCBENCH_* variables.")
	fs.StringVar(&config.Mode, "mode", ModeBoth, "Experiments to run: serial, parallel or both.")
	fs.BoolVar(&config.Clear, "clear", false, "Forget the active batch.")
	fs.BoolVar(&config.Reset, "reset", false, "Reset both experiments to PENDING and exit.")
	fs.IntVar(&config.Cores, "cores", DefaultCoreCount, "Core count used to compute parallel efficiency.")
	fs.DurationVar(&config.PollInterval, "poll-interval", DefaultPollInterval, "Period between status queries.")
	fs.IntVar(&config.MaxPollErrors, "max-poll-errors", 0, "Fail after N consecutive failed status queries (0 = never).")
	fs.DurationVar(&config.PollTimeout, "poll-timeout", 0, "Fail an experiment still processing after this long (0 = never).")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum duration of a one-shot comparison (not applied to -tui or -i).")
	fs.DurationVar(&config.RequestTimeout, "request-timeout", DefaultRequestTimeout, "Timeout of a single HTTP request.")
	fs.StringVar(&config.OutputFile, "output", "", "Write a report to this .json or .yaml file.")
	fs.StringVar(&config.OutputFile, "o", "", "Write a report to a file (shorthand).")
	fs.StringVar(&config.DownloadDir, "download-dir", "", "Download processed artifacts into this directory.")
	fs.StringVar(&config.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090).")
	fs.StringVar(&config.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error, disabled.")
	fs.StringVar(&config.LogFormat, "log-format", "console", "Log format: console or json.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode: only print errors.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.Verbose, "verbose", false, "Print every result and artifact URL.")
	fs.BoolVar(&config.Verbose, "v", false, "Verbose output (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output.")
	fs.BoolVar(&config.TUI, "tui", false, "Launch the interactive dashboard.")
	fs.BoolVar(&config.Interactive, "interactive", false, "Start an interactive command session.")
	fs.BoolVar(&config.Interactive, "i", false, "Interactive session (shorthand).")
	fs.StringVar(&config.Completion, "completion", "", "Print a completion script for bash, zsh or fish.")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	config.Files = fs.Args()

	if err := loadEnvFile(config.EnvFile, isFlagSet(fs, "env-file")); err != nil {
		fmt.Fprintln(errorWriter, "Error:", err)
		return AppConfig{}, err
	}
	applyEnvOverrides(&config, fs)

	if err := config.Validate(); err != nil {
		fmt.Fprintln(errorWriter, "Error:", err)
		return AppConfig{}, err
	}
	return config, nil
}

// loadEnvFile reads a dotenv file into the process environment without
// overriding variables that are already set. A missing default file is not
// an error; a missing explicitly requested one is.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	return apperrors.NewConfigError("load env file %q: %v", path, err)
}
