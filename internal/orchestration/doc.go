// Package orchestration coordinates the SERIAL and PARALLEL experiments run
// against one batch: it owns the active batch and its persistence, drives
// both lifecycles through the polling scheduler and derives the speedup,
// efficiency and displayed results. Presentation stays behind the
// ProgressReporter and ResultPresenter interfaces.
package orchestration
