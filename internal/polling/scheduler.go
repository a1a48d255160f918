// Package polling drives the periodic status queries of running experiments.
// Each watched experiment gets one goroutine with one ticker, so at most one
// query per experiment is in flight and reports are delivered in order.
package polling

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/logging"
)

// DefaultInterval is the period between two status queries.
const DefaultInterval = time.Second

// Poll outcomes passed to Recorder.RecordPoll.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeTerminal = "terminal"
)

// ErrAlreadyWatching is returned when an experiment already has a live watch.
var ErrAlreadyWatching = errors.New("experiment is already being watched")

// Fetcher performs one status query.
type Fetcher interface {
	GetExperimentStatus(ctx context.Context, id experiment.ID) (experiment.StatusReport, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, id experiment.ID) (experiment.StatusReport, error)

// GetExperimentStatus calls f.
func (f FetcherFunc) GetExperimentStatus(ctx context.Context, id experiment.ID) (experiment.StatusReport, error) {
	return f(ctx, id)
}

// Recorder counts poll outcomes. metrics.Collector implements it.
type Recorder interface {
	RecordPoll(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordPoll(string) {}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the polling period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithMaxConsecutiveErrors ends a watch with a PollError after n failed
// queries in a row. Zero keeps polling through any number of failures.
func WithMaxConsecutiveErrors(n int) Option {
	return func(s *Scheduler) { s.maxErrors = n }
}

// WithMaxDuration ends a watch with a TimeoutError once it has been running
// for d. Zero means no limit.
func WithMaxDuration(d time.Duration) Option {
	return func(s *Scheduler) { s.maxDuration = d }
}

// WithLogger sets the logger used for query failures.
func WithLogger(l logging.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithRecorder sets the poll outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// Scheduler owns the set of live watches.
type Scheduler struct {
	fetcher     Fetcher
	interval    time.Duration
	maxErrors   int
	maxDuration time.Duration
	logger      logging.Logger
	recorder    Recorder

	mu      sync.Mutex
	watches map[experiment.ID]*Watch
}

// New creates a Scheduler querying fetcher.
func New(fetcher Fetcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		fetcher:  fetcher,
		interval: DefaultInterval,
		logger:   logging.NopLogger{},
		recorder: nopRecorder{},
		watches:  make(map[experiment.ID]*Watch),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the configured polling period.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Outcome describes how a watch ended.
type Outcome struct {
	// Report is the last successful status report, terminal when Err is nil.
	Report experiment.StatusReport
	// Err is nil when the experiment reached a terminal status. Otherwise it
	// is a context error, a PollError or a TimeoutError.
	Err error
	// Polls counts every query issued, failed ones included.
	Polls int
}

// Watch is a live polling loop for one experiment.
type Watch struct {
	id     experiment.ID
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	outcome Outcome
}

// ID returns the watched experiment id.
func (w *Watch) ID() experiment.ID { return w.id }

// Done is closed once the polling goroutine has exited.
func (w *Watch) Done() <-chan struct{} { return w.done }

// Stop cancels the watch and waits for its goroutine to exit. No callback
// runs after Stop returns.
func (w *Watch) Stop() {
	w.cancel()
	<-w.done
}

// Outcome returns the final result. It is only complete after Done is closed.
func (w *Watch) Outcome() Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outcome
}

// Watch starts polling id. The first query fires one interval after the call.
// onSnapshot receives every successful report, including the terminal one,
// from the watch goroutine.
func (s *Scheduler) Watch(ctx context.Context, id experiment.ID, onSnapshot func(experiment.StatusReport)) (*Watch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.watches[id]; ok {
		return nil, ErrAlreadyWatching
	}
	wctx, cancel := context.WithCancel(ctx)
	w := &Watch{id: id, cancel: cancel, done: make(chan struct{})}
	s.watches[id] = w
	go s.run(wctx, w, onSnapshot)
	return w, nil
}

// Active returns the number of live watches.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watches)
}

// StopAll stops every live watch.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	watches := make([]*Watch, 0, len(s.watches))
	for _, w := range s.watches {
		watches = append(watches, w)
	}
	s.mu.Unlock()
	for _, w := range watches {
		w.Stop()
	}
}

func (s *Scheduler) run(ctx context.Context, w *Watch, onSnapshot func(experiment.StatusReport)) {
	var out Outcome
	defer func() {
		w.mu.Lock()
		w.outcome = out
		w.mu.Unlock()
		s.mu.Lock()
		if s.watches[w.id] == w {
			delete(s.watches, w.id)
		}
		s.mu.Unlock()
		w.cancel()
		close(w.done)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if s.maxDuration > 0 {
		timer := time.NewTimer(s.maxDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	log := s.logger
	consecutive := 0
	for {
		select {
		case <-ctx.Done():
			out.Err = ctx.Err()
			return
		case <-deadline:
			out.Err = apperrors.TimeoutError{Operation: "poll experiment " + string(w.id), Limit: s.maxDuration}
			log.Warn("polling deadline reached", logging.String("experiment_id", string(w.id)), logging.Duration("limit", s.maxDuration))
			return
		case <-ticker.C:
		}

		report, err := s.fetcher.GetExperimentStatus(ctx, w.id)
		out.Polls++
		if ctx.Err() != nil {
			out.Err = ctx.Err()
			return
		}
		if err != nil {
			consecutive++
			s.recorder.RecordPoll(OutcomeError)
			log.Warn("status query failed",
				logging.String("experiment_id", string(w.id)),
				logging.Int("consecutive", consecutive),
				logging.Err(err))
			if s.maxErrors > 0 && consecutive >= s.maxErrors {
				out.Err = apperrors.PollError{ExperimentID: string(w.id), Attempts: consecutive, Cause: err}
				return
			}
			continue
		}
		consecutive = 0
		if report.ID == "" {
			report.ID = w.id
		}
		out.Report = report
		if report.Status.IsTerminal() {
			s.recorder.RecordPoll(OutcomeTerminal)
		} else {
			s.recorder.RecordPoll(OutcomeOK)
		}
		log.Debug("status query", logging.String("experiment_id", string(w.id)), logging.String("status", string(report.Status)))
		onSnapshot(report)
		if report.Status.IsTerminal() {
			return
		}
	}
}
