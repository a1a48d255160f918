// This file contains environment variable overrides for configuration.

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// isFlagSet checks if a flag was explicitly set on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the specified flags were explicitly set.
// Aliased flags may be given in either form.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride maps an env key (without the PDCBENCH_ prefix) to the CLI
// flag name(s) it corresponds to and a function that applies the value.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string)
}

func durationEnv(dst *time.Duration, v string) {
	if parsed, err := time.ParseDuration(v); err == nil {
		*dst = parsed
	}
}

func intEnv(dst *int, v string) {
	if parsed, err := strconv.Atoi(v); err == nil {
		*dst = parsed
	}
}

// envOverrides is the declarative table of all environment variable overrides.
var envOverrides = []envOverride{
	// Service
	{"SERVER", []string{"server"}, func(c *AppConfig, v string) { c.ServerURL = v }},
	{"MEDIA", []string{"media"}, func(c *AppConfig, v string) { c.MediaURL = v }},
	{"SESSION", []string{"session"}, func(c *AppConfig, v string) { c.SessionFile = v }},

	// Run control
	{"MODE", []string{"mode"}, func(c *AppConfig, v string) { c.Mode = v }},
	{"CORES", []string{"cores"}, func(c *AppConfig, v string) { intEnv(&c.Cores, v) }},
	{"MAX_POLL_ERRORS", []string{"max-poll-errors"}, func(c *AppConfig, v string) { intEnv(&c.MaxPollErrors, v) }},

	// Durations
	{"POLL_INTERVAL", []string{"poll-interval"}, func(c *AppConfig, v string) { durationEnv(&c.PollInterval, v) }},
	{"POLL_TIMEOUT", []string{"poll-timeout"}, func(c *AppConfig, v string) { durationEnv(&c.PollTimeout, v) }},
	{"TIMEOUT", []string{"timeout"}, func(c *AppConfig, v string) { durationEnv(&c.Timeout, v) }},
	{"REQUEST_TIMEOUT", []string{"request-timeout"}, func(c *AppConfig, v string) { durationEnv(&c.RequestTimeout, v) }},

	// Output
	{"OUTPUT", []string{"output", "o"}, func(c *AppConfig, v string) { c.OutputFile = v }},
	{"DOWNLOAD_DIR", []string{"download-dir"}, func(c *AppConfig, v string) { c.DownloadDir = v }},
	{"METRICS_ADDR", []string{"metrics-addr"}, func(c *AppConfig, v string) { c.MetricsAddr = v }},
	{"LOG_LEVEL", []string{"log-level"}, func(c *AppConfig, v string) { c.LogLevel = v }},
	{"LOG_FORMAT", []string{"log-format"}, func(c *AppConfig, v string) { c.LogFormat = v }},

	// Booleans
	{"QUIET", []string{"quiet", "q"}, func(c *AppConfig, v string) { c.Quiet = parseBoolEnv(v, c.Quiet) }},
	{"VERBOSE", []string{"verbose", "v"}, func(c *AppConfig, v string) { c.Verbose = parseBoolEnv(v, c.Verbose) }},
	{"NO_COLOR", []string{"no-color"}, func(c *AppConfig, v string) { c.NoColor = parseBoolEnv(v, c.NoColor) }},
	{"TUI", []string{"tui"}, func(c *AppConfig, v string) { c.TUI = parseBoolEnv(v, c.TUI) }},
	{"INTERACTIVE", []string{"interactive", "i"}, func(c *AppConfig, v string) { c.Interactive = parseBoolEnv(v, c.Interactive) }},
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
//
// Supported environment variables (all prefixed with PDCBENCH_):
//   - SERVER, MEDIA, SESSION, MODE, CORES, MAX_POLL_ERRORS,
//     POLL_INTERVAL, POLL_TIMEOUT, TIMEOUT, REQUEST_TIMEOUT,
//     OUTPUT, DOWNLOAD_DIR, METRICS_ADDR, LOG_LEVEL, LOG_FORMAT,
//     QUIET, VERBOSE, NO_COLOR, TUI, INTERACTIVE
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}
