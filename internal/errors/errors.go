package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
const (
	ExitSuccess         = 0   // Indicates successful execution.
	ExitErrorGeneric    = 1   // Indicates a generic error (upload or transport failure).
	ExitErrorTimeout    = 2   // Indicates the run timed out.
	ExitErrorExperiment = 3   // Indicates at least one experiment ended FAILED.
	ExitErrorConfig     = 4   // Indicates a configuration error.
	ExitErrorCanceled   = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// UploadError reports a failed batch upload. No batch is created or
// persisted when it is returned.
type UploadError struct {
	Files int
	Cause error
}

func (e UploadError) Error() string {
	return fmt.Sprintf("upload of %d file(s) failed: %v", e.Files, e.Cause)
}

func (e UploadError) Unwrap() error { return e.Cause }

// StartError reports that the service refused or could not be reached when
// starting an experiment. The lifecycle for Mode moves straight to FAILED.
type StartError struct {
	Mode  string
	Cause error
}

func (e StartError) Error() string {
	return fmt.Sprintf("start %s experiment: %v", e.Mode, e.Cause)
}

func (e StartError) Unwrap() error { return e.Cause }

// PollError reports that status queries for an experiment kept failing.
// Attempts is the number of consecutive failed queries.
type PollError struct {
	ExperimentID string
	Attempts     int
	Cause        error
}

func (e PollError) Error() string {
	return fmt.Sprintf("polling experiment %s failed %d time(s) in a row: %v", e.ExperimentID, e.Attempts, e.Cause)
}

func (e PollError) Unwrap() error { return e.Cause }

// SessionRestoreError describes an unreadable session record. It is logged
// and the record discarded; callers never receive it from Restore.
type SessionRestoreError struct {
	Location string
	Cause    error
}

func (e SessionRestoreError) Error() string {
	return fmt.Sprintf("restore session from %s: %v", e.Location, e.Cause)
}

func (e SessionRestoreError) Unwrap() error { return e.Cause }

// APIError is returned by the remote client for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("service returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("service returned HTTP %d: %s", e.StatusCode, e.Body)
}

// ExperimentFailedError is produced when the service reports FAILED for an
// experiment.
type ExperimentFailedError struct {
	Mode         string
	ExperimentID string
}

func (e ExperimentFailedError) Error() string {
	return fmt.Sprintf("%s experiment %s reported FAILED", e.Mode, e.ExperimentID)
}

// TimeoutError represents an operation that exceeded its time limit.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// It returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCodeFor maps an error to the process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var (
		configErr     ConfigError
		validationErr ValidationError
		timeoutErr    TimeoutError
		failedErr     ExperimentFailedError
		startErr      StartError
		pollErr       PollError
	)
	switch {
	case errors.As(err, &configErr), errors.As(err, &validationErr):
		return ExitErrorConfig
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &failedErr), errors.As(err, &startErr), errors.As(err, &pollErr):
		return ExitErrorExperiment
	}
	return ExitErrorGeneric
}
