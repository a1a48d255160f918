package experiment

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/agbru/pdcbench/internal/errors"
)

// ErrAlreadyRunning is returned by Start while an experiment of the same mode
// is still PROCESSING.
var ErrAlreadyRunning = errors.New("experiment already running")

// Starter requests a new remote experiment for a batch.
type Starter interface {
	StartExperiment(ctx context.Context, batchID ID, mode Mode) (ID, error)
}

// StarterFunc adapts a function to the Starter interface.
type StarterFunc func(ctx context.Context, batchID ID, mode Mode) (ID, error)

// StartExperiment calls f.
func (f StarterFunc) StartExperiment(ctx context.Context, batchID ID, mode Mode) (ID, error) {
	return f(ctx, batchID, mode)
}

// Observer receives a snapshot after every transition.
type Observer func(Snapshot)

// Lifecycle is the state machine of one experiment mode:
//
//	PENDING -> PROCESSING -> COMPLETED | FAILED
//
// Start is accepted from PENDING or a terminal state; Reset is the only way
// back to PENDING. Both modes use this type; only the Mode tag differs.
type Lifecycle struct {
	mode    Mode
	starter Starter
	now     func() time.Time

	mu        sync.Mutex
	snap      Snapshot
	observers []Observer
}

// LifecycleOption configures a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithClock overrides the time source used for StartedAt/FinishedAt.
func WithClock(now func() time.Time) LifecycleOption {
	return func(l *Lifecycle) { l.now = now }
}

// WithObserver registers an observer notified after each transition.
func WithObserver(o Observer) LifecycleOption {
	return func(l *Lifecycle) { l.observers = append(l.observers, o) }
}

// NewLifecycle creates a PENDING lifecycle for mode.
func NewLifecycle(mode Mode, starter Starter, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		mode:    mode,
		starter: starter,
		now:     time.Now,
		snap:    Snapshot{Mode: mode, Status: StatusPending},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Mode returns the mode this lifecycle tracks.
func (l *Lifecycle) Mode() Mode { return l.mode }

// Observe registers an additional observer.
func (l *Lifecycle) Observe(o Observer) {
	l.mu.Lock()
	l.observers = append(l.observers, o)
	l.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (l *Lifecycle) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyLocked()
}

// Start requests a new remote experiment for batchID. The lifecycle is
// PROCESSING (and observers notified) before the request is sent, so the
// state reflects "running" without waiting on the network. If the request
// fails the lifecycle becomes FAILED and a StartError is returned.
func (l *Lifecycle) Start(ctx context.Context, batchID ID) (ID, error) {
	l.mu.Lock()
	if l.snap.Status == StatusProcessing {
		l.mu.Unlock()
		return "", ErrAlreadyRunning
	}
	l.snap = Snapshot{Mode: l.mode, Status: StatusProcessing, StartedAt: l.now()}
	l.notifyLocked()
	l.mu.Unlock()

	id, err := l.starter.StartExperiment(ctx, batchID, l.mode)
	if err == nil && id == "" {
		err = errors.New("service returned an empty experiment id")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap.Status != StatusProcessing || l.snap.ExperimentID != "" {
		// Reset (or a newer Start) happened while the request was in flight.
		return id, context.Canceled
	}
	if err != nil {
		serr := apperrors.StartError{Mode: string(l.mode), Cause: err}
		l.snap.Status = StatusFailed
		l.snap.Err = serr
		l.snap.FinishedAt = l.now()
		l.notifyLocked()
		return "", serr
	}
	l.snap.ExperimentID = id
	l.notifyLocked()
	return id, nil
}

// OnPoll applies a status report. Reports for another experiment, or
// arriving when the lifecycle is not PROCESSING, are ignored. Non-terminal
// statuses leave the state untouched. It returns true when the report
// performed the terminal transition.
func (l *Lifecycle) OnPoll(report StatusReport) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap.Status != StatusProcessing || l.snap.ExperimentID == "" || report.ID != l.snap.ExperimentID {
		return false
	}
	switch report.Status {
	case StatusCompleted:
		l.snap.Status = StatusCompleted
		if report.DurationSeconds != nil {
			l.snap.Duration = *report.DurationSeconds
			l.snap.HasDuration = true
		}
		l.snap.CPUCoresUsed = report.CPUCoresUsed
		l.snap.Results = append([]Result(nil), report.Results...)
	case StatusFailed:
		l.snap.Status = StatusFailed
		l.snap.Duration, l.snap.HasDuration = 0, false
		l.snap.Results = nil
		l.snap.Err = apperrors.ExperimentFailedError{Mode: string(l.mode), ExperimentID: string(report.ID)}
	default:
		return false
	}
	l.snap.FinishedAt = l.now()
	l.notifyLocked()
	return true
}

// Fail forces the FAILED state for experiment id, used when polling gives up.
func (l *Lifecycle) Fail(id ID, err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snap.Status != StatusProcessing || l.snap.ExperimentID != id {
		return false
	}
	l.snap.Status = StatusFailed
	l.snap.Duration, l.snap.HasDuration = 0, false
	l.snap.Results = nil
	l.snap.Err = err
	l.snap.FinishedAt = l.now()
	l.notifyLocked()
	return true
}

// Reset returns the lifecycle to PENDING and discards all data. Callers must
// stop any watch feeding OnPoll first.
func (l *Lifecycle) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap = Snapshot{Mode: l.mode, Status: StatusPending}
	l.notifyLocked()
}

func (l *Lifecycle) copyLocked() Snapshot {
	s := l.snap
	s.Results = append([]Result(nil), l.snap.Results...)
	return s
}

// notifyLocked runs observers while holding the lock so they see transitions
// in order. Observers must not call back into the lifecycle.
func (l *Lifecycle) notifyLocked() {
	if len(l.observers) == 0 {
		return
	}
	s := l.copyLocked()
	for _, o := range l.observers {
		o(s)
	}
}
