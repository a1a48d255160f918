// Package apperrors defines structured application error types for the
// experiment orchestrator: upload, start and poll failures, session restore
// problems, remote API errors, configuration and timeout errors. Every wrapper
// keeps its cause so errors.Is and errors.As work across the chain, and
// ExitCodeFor maps any of them to a process exit code.
package apperrors
