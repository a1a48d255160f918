package cli

import (
	"fmt"
	"io"
	"strings"
)

// FlagCompletion describes a CLI flag for shell completion generation.
// Every generator reads flagRegistry, so a new flag only needs one entry.
type FlagCompletion struct {
	Long      string   // long flag name without "--"
	Short     string   // short flag without "-"
	Help      string   // description text
	Values    []string // suggested values (nil = boolean or free-form)
	ValueName string   // label for the value in zsh
	IsFile    bool     // the flag takes a file path
	IsDir     bool     // the flag takes a directory path
}

var flagRegistry = []FlagCompletion{
	{Long: "help", Short: "h", Help: "Show help message"},
	{Long: "version", Short: "V", Help: "Show version information"},
	{Long: "server", Help: "API root of the processing service", ValueName: "url"},
	{Long: "media", Help: "Base URL of processed artifacts", ValueName: "url"},
	{Long: "session", Help: "Path of the persisted active batch", IsFile: true, ValueName: "file"},
	{Long: "env-file", Help: "Dotenv file with PDCBENCH_ variables", IsFile: true, ValueName: "file"},
	{Long: "mode", Help: "Experiments to run", Values: []string{"serial", "parallel", "both"}, ValueName: "mode"},
	{Long: "clear", Help: "Forget the active batch"},
	{Long: "reset", Help: "Reset both experiments to PENDING"},
	{Long: "cores", Help: "Core count used for efficiency", Values: []string{"2", "4", "8", "16"}, ValueName: "cores"},
	{Long: "poll-interval", Help: "Period between status queries", Values: []string{"500ms", "1s", "2s", "5s"}, ValueName: "duration"},
	{Long: "max-poll-errors", Help: "Fail after N consecutive poll errors", ValueName: "count"},
	{Long: "poll-timeout", Help: "Fail experiments processing longer than this", Values: []string{"5m", "10m", "30m"}, ValueName: "duration"},
	{Long: "timeout", Help: "Maximum duration of a one-shot comparison", Values: []string{"5m", "30m", "1h"}, ValueName: "duration"},
	{Long: "request-timeout", Help: "Timeout of one HTTP request", Values: []string{"10s", "30s", "1m"}, ValueName: "duration"},
	{Long: "output", Short: "o", Help: "Write a JSON or YAML report", IsFile: true, ValueName: "file"},
	{Long: "download-dir", Help: "Download processed artifacts here", IsDir: true, ValueName: "dir"},
	{Long: "metrics-addr", Help: "Serve Prometheus metrics on this address", ValueName: "addr"},
	{Long: "log-level", Help: "Log level", Values: []string{"debug", "info", "warn", "error", "disabled"}, ValueName: "level"},
	{Long: "log-format", Help: "Log format", Values: []string{"console", "json"}, ValueName: "format"},
	{Long: "quiet", Short: "q", Help: "Only print errors"},
	{Long: "verbose", Short: "v", Help: "Print every result and artifact URL"},
	{Long: "no-color", Help: "Disable colored output"},
	{Long: "tui", Help: "Launch the interactive dashboard"},
	{Long: "interactive", Short: "i", Help: "Start an interactive command session"},
	{Long: "completion", Help: "Print a completion script", Values: []string{"bash", "zsh", "fish"}, ValueName: "shell"},
}

// GenerateCompletion writes a completion script for shell ("bash", "zsh" or
// "fish") to out.
func GenerateCompletion(out io.Writer, shell, program string) error {
	var script string
	switch shell {
	case "bash":
		script = bashCompletion(program)
	case "zsh":
		script = zshCompletion(program)
	case "fish":
		script = fishCompletion(program)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish)", shell)
	}
	if _, err := io.WriteString(out, script); err != nil {
		return fmt.Errorf("completion %s generation failed: %w", shell, err)
	}
	return nil
}

func funcName(program string) string {
	return "_" + strings.NewReplacer("-", "_", ".", "_").Replace(program)
}

func bashCompletion(program string) string {
	var opts []string
	var cases strings.Builder
	for _, f := range flagRegistry {
		patterns := []string{"--" + f.Long}
		if f.Short != "" {
			patterns = append(patterns, "-"+f.Short)
		}
		opts = append(opts, patterns...)

		var body string
		switch {
		case f.IsDir:
			body = `COMPREPLY=( $(compgen -d -- "${cur}") )`
		case f.IsFile:
			body = `COMPREPLY=( $(compgen -f -- "${cur}") )`
		case len(f.Values) > 0:
			body = fmt.Sprintf(`COMPREPLY=( $(compgen -W "%s" -- "${cur}") )`, strings.Join(f.Values, " "))
		default:
			continue
		}
		fmt.Fprintf(&cases, "        %s)\n            %s\n            return 0\n            ;;\n", strings.Join(patterns, "|"), body)
	}

	return fmt.Sprintf(`# Bash completion script for %[1]s
# Add this to your ~/.bashrc or ~/.bash_completion

%[2]s_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    opts="%[3]s"

    case "${prev}" in
%[4]s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
    # Positional arguments are audio files to upload.
    COMPREPLY=( $(compgen -f -- "${cur}") )
}

complete -F %[2]s_completions %[1]s
`, program, funcName(program), strings.Join(opts, " "), cases.String())
}

// zshArgEntry formats a single FlagCompletion as a zsh _arguments entry.
func zshArgEntry(f FlagCompletion) string {
	var suffix string
	switch {
	case f.IsDir:
		suffix = fmt.Sprintf(":%s:_files -/", f.ValueName)
	case f.IsFile:
		suffix = fmt.Sprintf(":%s:_files", f.ValueName)
	case len(f.Values) > 0:
		suffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(f.Values, " "))
	case f.ValueName != "":
		suffix = fmt.Sprintf(":%s:", f.ValueName)
	}
	if f.Short != "" {
		return fmt.Sprintf("        '(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, f.Help, suffix)
	}
	return fmt.Sprintf("        '--%s[%s]%s'", f.Long, f.Help, suffix)
}

func zshCompletion(program string) string {
	args := make([]string, 0, len(flagRegistry)+1)
	for _, f := range flagRegistry {
		args = append(args, zshArgEntry(f))
	}
	args = append(args, "        '*:audio file:_files'")

	return fmt.Sprintf(`#compdef %[1]s

# Zsh completion script for %[1]s
# Place this file in a directory of your $fpath

%[2]s() {
    _arguments -s \
%[3]s
}

%[2]s "$@"
`, program, funcName(program), strings.Join(args, " \\\n"))
}

// fishCompleteLine formats a single FlagCompletion as a fish complete command.
func fishCompleteLine(f FlagCompletion, program string) string {
	parts := []string{"complete -c " + program}
	if f.Short != "" {
		parts = append(parts, "-s "+f.Short)
	}
	parts = append(parts, "-l "+f.Long, fmt.Sprintf("-d '%s'", f.Help))
	switch {
	case f.IsFile || f.IsDir:
		parts = append(parts, "-rF")
	case len(f.Values) > 0:
		parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(f.Values, " ")))
	case f.ValueName != "":
		parts = append(parts, "-x")
	}
	return strings.Join(parts, " ")
}

func fishCompletion(program string) string {
	lines := []string{
		"# Fish completion script for " + program,
		fmt.Sprintf("# Add this to ~/.config/fish/completions/%s.fish", program),
		"",
	}
	for _, f := range flagRegistry {
		lines = append(lines, fishCompleteLine(f, program))
	}
	return strings.Join(lines, "\n") + "\n"
}
