// Package logging provides the logging interface used by pdcbench components.
// It abstracts the underlying implementation (zerolog by default, the standard
// library logger as a fallback) so the orchestrator, the polling scheduler and
// the session store log structured fields the same way.
package logging
