package orchestration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/pdcbench/internal/config"
	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/logging"
	"github.com/agbru/pdcbench/internal/polling"
	"github.com/agbru/pdcbench/internal/session"
)

var (
	// ErrNoBatch is returned by Start when no batch has been uploaded or
	// restored.
	ErrNoBatch = errors.New("no active batch")
	// ErrClosed is returned by operations on a closed Orchestrator.
	ErrClosed = errors.New("orchestrator closed")
)

// State is a consistent view of the whole orchestrator.
type State struct {
	Batch    experiment.Batch
	HasBatch bool
	Serial   experiment.Snapshot
	Parallel experiment.Snapshot
	// Comparison is derived from Serial and Parallel.
	Comparison Comparison
	// ResultsMode names the mode Results were taken from; empty when no
	// mode has completed.
	ResultsMode experiment.Mode
	Results     []experiment.Result
}

// Snapshot returns the snapshot of mode.
func (s State) Snapshot(mode experiment.Mode) experiment.Snapshot {
	if mode == experiment.ModeParallel {
		return s.Parallel
	}
	return s.Serial
}

// Active returns the modes currently PROCESSING, in display order.
func (s State) Active() []experiment.Mode {
	var modes []experiment.Mode
	for _, m := range experiment.Modes() {
		if s.Snapshot(m).Running() {
			modes = append(modes, m)
		}
	}
	return modes
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithScheduler replaces the default polling scheduler.
func WithScheduler(s *polling.Scheduler) Option {
	return func(o *Orchestrator) { o.scheduler = s }
}

// WithLogger sets the orchestrator logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithRecorder sets the instrumentation sink.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithCoreCount sets the assumed core count used for efficiency.
func WithCoreCount(n int) Option {
	return func(o *Orchestrator) { o.cores = n }
}

// WithClock overrides the time source of both lifecycles.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// run tracks the goroutine driving one mode.
type run struct {
	cancel context.CancelFunc
	done   chan struct{}
	// stopped is set when Reset, Upload, Clear or Close ends the run.
	stopped atomic.Bool
}

// Orchestrator bridges the active batch, the two experiment lifecycles, the
// polling scheduler and the session store. Both modes run independently;
// a failure in one never touches the other or the stored session.
type Orchestrator struct {
	service   Service
	store     session.Store
	scheduler *polling.Scheduler
	logger    logging.Logger
	recorder  Recorder
	cores     int
	now       func() time.Time

	lifecycles map[experiment.Mode]*experiment.Lifecycle

	// ctl serialises the operations that stop or start runs.
	ctl sync.Mutex

	mu       sync.Mutex
	batch    experiment.Batch
	hasBatch bool
	runs     map[experiment.Mode]*run
	closed   bool
	subs     map[int]func(State)
	nextSub  int

	changeMu sync.Mutex
	changed  chan struct{}

	// dispatchMu is held while subscribers run.
	dispatchMu   sync.Mutex
	quit         chan struct{}
	dispatchDone chan struct{}
}

// New creates an Orchestrator. Both lifecycles start PENDING and no batch is
// active until Restore or Upload.
func New(service Service, store session.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		service:      service,
		store:        store,
		logger:       logging.NopLogger{},
		recorder:     NopRecorder{},
		cores:        config.DefaultCoreCount,
		now:          time.Now,
		runs:         make(map[experiment.Mode]*run),
		subs:         make(map[int]func(State)),
		changed:      make(chan struct{}),
		quit:         make(chan struct{}),
		dispatchDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.scheduler == nil {
		o.scheduler = polling.New(service, polling.WithLogger(o.logger), polling.WithRecorder(o.recorder))
	}
	o.lifecycles = make(map[experiment.Mode]*experiment.Lifecycle, 2)
	for _, m := range experiment.Modes() {
		o.lifecycles[m] = experiment.NewLifecycle(m, service,
			experiment.WithClock(o.now),
			experiment.WithObserver(o.onTransition))
	}
	// Taken before the goroutine starts so that changes made right after New
	// returns are not missed.
	go o.dispatch(o.changes())
	return o
}

// Restore loads the persisted batch, if any. Lifecycles are reset to PENDING;
// experiments are never restored.
func (o *Orchestrator) Restore() (experiment.Batch, bool) {
	o.ctl.Lock()
	defer o.ctl.Unlock()
	batch, ok := o.store.Restore()
	if !ok {
		return experiment.Batch{}, false
	}
	o.stopAll()
	o.mu.Lock()
	o.batch, o.hasBatch = batch.Clone(), true
	o.mu.Unlock()
	o.logger.Info("session restored", logging.String("batch_id", string(batch.ID)), logging.Int("files", len(batch.Files)))
	o.bump()
	return batch.Clone(), true
}

// Upload sends files to the service as a new batch.
//
// On failure an UploadError is returned and nothing changes: the previous
// batch, both lifecycles and the stored session stay as they were, so the
// upload can simply be retried. On success every run is stopped, both
// lifecycles return to PENDING and the new batch is installed and saved. A
// failed save is logged but does not fail the upload.
func (o *Orchestrator) Upload(ctx context.Context, files []experiment.UploadFile) (experiment.Batch, error) {
	if len(files) == 0 {
		return experiment.Batch{}, apperrors.ValidationError{Field: "files", Message: "at least one file is required"}
	}
	if o.isClosed() {
		return experiment.Batch{}, ErrClosed
	}
	batch, err := o.service.UploadBatch(ctx, files)
	if err == nil && batch.ID == "" {
		err = errors.New("service returned a batch without id")
	}
	if err != nil {
		var uploadErr apperrors.UploadError
		if !errors.As(err, &uploadErr) {
			err = apperrors.UploadError{Files: len(files), Cause: err}
		}
		o.logger.Error("batch upload failed", err, logging.Int("files", len(files)))
		return experiment.Batch{}, err
	}

	o.ctl.Lock()
	defer o.ctl.Unlock()
	o.stopAll()
	o.mu.Lock()
	o.batch, o.hasBatch = batch.Clone(), true
	o.mu.Unlock()
	if err := o.store.Save(batch); err != nil {
		o.logger.Error("failed to persist session", err, logging.String("batch_id", string(batch.ID)))
	}
	o.logger.Info("batch uploaded", logging.String("batch_id", string(batch.ID)), logging.Int("files", len(batch.Files)))
	o.bump()
	return batch.Clone(), nil
}

// Clear stops every run, forgets the batch and deletes the stored session.
func (o *Orchestrator) Clear() error {
	o.ctl.Lock()
	defer o.ctl.Unlock()
	o.stopAll()
	o.mu.Lock()
	o.batch, o.hasBatch = experiment.Batch{}, false
	o.mu.Unlock()
	o.bump()
	if err := o.store.Clear(); err != nil {
		return apperrors.WrapError(err, "clear session")
	}
	o.logger.Info("session cleared")
	return nil
}

// Start launches an experiment of mode against the active batch.
//
// The lifecycle is PROCESSING before the start request is sent. Start returns
// once the service has answered: on success polling continues in the
// background until the experiment is terminal, Reset is called or ctx is
// done; on failure the mode is FAILED and a StartError is returned.
//
// Parameters:
//   - ctx: Bounds the whole run, start request and polling included.
//   - mode: The experiment mode to launch.
//
// Returns:
//   - error: ErrNoBatch, experiment.ErrAlreadyRunning, a StartError or nil.
func (o *Orchestrator) Start(ctx context.Context, mode experiment.Mode) error {
	l, err := o.lifecycle(mode)
	if err != nil {
		return err
	}

	o.ctl.Lock()
	o.mu.Lock()
	switch {
	case o.closed:
		o.mu.Unlock()
		o.ctl.Unlock()
		return ErrClosed
	case !o.hasBatch:
		o.mu.Unlock()
		o.ctl.Unlock()
		return ErrNoBatch
	case o.runs[mode] != nil || l.Snapshot().Running():
		o.mu.Unlock()
		o.ctl.Unlock()
		return experiment.ErrAlreadyRunning
	}
	batchID := o.batch.ID
	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel, done: make(chan struct{})}
	o.runs[mode] = r
	o.mu.Unlock()
	o.ctl.Unlock()

	log := o.logger
	id, err := l.Start(runCtx, batchID)
	if err != nil {
		o.finishRun(mode, r)
		if !apperrors.IsContextError(err) {
			log.Error("experiment start failed", err, logging.String("mode", string(mode)))
		}
		return err
	}
	log.Info("experiment started",
		logging.String("mode", string(mode)),
		logging.String("experiment_id", string(id)),
		logging.String("batch_id", string(batchID)))

	w, err := o.scheduler.Watch(runCtx, id, func(report experiment.StatusReport) {
		l.OnPoll(report)
	})
	if err != nil {
		l.Fail(id, err)
		o.finishRun(mode, r)
		return err
	}
	go func() {
		defer o.finishRun(mode, r)
		<-w.Done()
		out := w.Outcome()
		if out.Err == nil || r.stopped.Load() {
			return
		}
		// The caller's context ended or polling gave up: the experiment
		// can no longer be observed.
		if l.Fail(id, out.Err) {
			log.Error("experiment polling abandoned", out.Err,
				logging.String("mode", string(mode)),
				logging.String("experiment_id", string(id)),
				logging.Int("polls", out.Polls))
		}
	}()
	return nil
}

// Wait blocks until mode is no longer PROCESSING and returns its snapshot.
// The error is ctx's error when ctx ends first, otherwise the snapshot's
// error when the mode FAILED.
func (o *Orchestrator) Wait(ctx context.Context, mode experiment.Mode) (experiment.Snapshot, error) {
	l, err := o.lifecycle(mode)
	if err != nil {
		return experiment.Snapshot{}, err
	}
	for {
		ch := o.changes()
		s := l.Snapshot()
		if !s.Running() {
			if s.Status == experiment.StatusFailed {
				return s, s.Err
			}
			return s, nil
		}
		select {
		case <-ctx.Done():
			return l.Snapshot(), ctx.Err()
		case <-ch:
		}
	}
}

// RunComparison starts every requested mode concurrently and waits for all
// of them. It returns the final state and the first error encountered; one
// mode failing never cancels the others.
func (o *Orchestrator) RunComparison(ctx context.Context, modes ...experiment.Mode) (State, error) {
	var g errgroup.Group
	for _, m := range modes {
		mode := m
		g.Go(func() error {
			if err := o.Start(ctx, mode); err != nil {
				return err
			}
			_, err := o.Wait(ctx, mode)
			return err
		})
	}
	err := g.Wait()
	return o.State(), err
}

// Reset stops the run of mode, waiting for its polling goroutine to exit,
// and returns the lifecycle to PENDING. The batch is kept.
func (o *Orchestrator) Reset(mode experiment.Mode) {
	l, ok := o.lifecycles[mode]
	if !ok {
		return
	}
	o.ctl.Lock()
	defer o.ctl.Unlock()
	o.stopRun(mode)
	l.Reset()
	o.logger.Debug("experiment reset", logging.String("mode", string(mode)))
}

// State returns a consistent view of the batch, both lifecycles and the
// derived metrics.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	st := State{Batch: o.batch.Clone(), HasBatch: o.hasBatch}
	o.mu.Unlock()
	st.Serial = o.lifecycles[experiment.ModeSerial].Snapshot()
	st.Parallel = o.lifecycles[experiment.ModeParallel].Snapshot()
	st.Comparison = Compare(st.Serial, st.Parallel, o.cores)
	st.ResultsMode, st.Results = SelectResults(st.Serial, st.Parallel)
	return st
}

// Subscribe registers fn to receive the state after changes. Bursts of
// changes may be coalesced into one call. Calls come from a single goroutine;
// fn must not call the returned unsubscribe function. After unsubscribe
// returns fn is never called again.
func (o *Orchestrator) Subscribe(fn func(State)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.mu.Unlock()
	o.bump()
	var once sync.Once
	return func() {
		once.Do(func() {
			o.dispatchMu.Lock()
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
			o.dispatchMu.Unlock()
		})
	}
}

// Close stops every run and the subscriber dispatcher. The stored session is
// kept.
func (o *Orchestrator) Close() {
	o.ctl.Lock()
	defer o.ctl.Unlock()
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()
	o.stopAll()
	o.scheduler.StopAll()
	close(o.quit)
	<-o.dispatchDone
}

func (o *Orchestrator) lifecycle(mode experiment.Mode) (*experiment.Lifecycle, error) {
	if l, ok := o.lifecycles[mode]; ok {
		return l, nil
	}
	return nil, apperrors.ValidationError{Field: "mode", Message: "unknown mode " + string(mode)}
}

func (o *Orchestrator) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// stopAll stops both runs and resets both lifecycles. Callers hold ctl.
func (o *Orchestrator) stopAll() {
	for _, m := range experiment.Modes() {
		o.stopRun(m)
		o.lifecycles[m].Reset()
	}
}

// stopRun cancels the run of mode and waits for it. Callers hold ctl.
func (o *Orchestrator) stopRun(mode experiment.Mode) {
	o.mu.Lock()
	r := o.runs[mode]
	o.mu.Unlock()
	if r == nil {
		return
	}
	r.stopped.Store(true)
	r.cancel()
	<-r.done
}

func (o *Orchestrator) finishRun(mode experiment.Mode, r *run) {
	r.cancel()
	o.mu.Lock()
	if o.runs[mode] == r {
		delete(o.runs, mode)
	}
	o.mu.Unlock()
	close(r.done)
	o.bump()
}

// onTransition runs under the lifecycle lock; it must not call back into a
// lifecycle.
func (o *Orchestrator) onTransition(s experiment.Snapshot) {
	switch {
	case s.Status == experiment.StatusProcessing && s.ExperimentID == "":
		o.recorder.ExperimentStarted(s.Mode)
	case s.Status.IsTerminal():
		o.recorder.ExperimentFinished(s.Mode, s.Status, s.Duration)
		if s.Status == experiment.StatusCompleted {
			o.logger.Info("experiment completed",
				logging.String("mode", string(s.Mode)),
				logging.String("experiment_id", string(s.ExperimentID)),
				logging.Float64("duration_seconds", s.Duration),
				logging.Int("results", len(s.Results)))
		}
	}
	o.recorder.SetRunning(s.Mode, s.Running())
	o.bump()
}

func (o *Orchestrator) changes() <-chan struct{} {
	o.changeMu.Lock()
	defer o.changeMu.Unlock()
	return o.changed
}

// bump wakes every Wait call and the dispatcher.
func (o *Orchestrator) bump() {
	o.changeMu.Lock()
	close(o.changed)
	o.changed = make(chan struct{})
	o.changeMu.Unlock()
}

// dispatch publishes the state to subscribers after every change signalled
// on ch or its successors.
func (o *Orchestrator) dispatch(ch <-chan struct{}) {
	defer close(o.dispatchDone)
	for {
		select {
		case <-o.quit:
			return
		case <-ch:
		}
		ch = o.changes()
		st := o.State()
		if st.Comparison.SpeedupDefined {
			o.recorder.SpeedupObserved(st.Comparison.Speedup)
		}
		o.dispatchMu.Lock()
		o.mu.Lock()
		subs := make([]func(State), 0, len(o.subs))
		for _, fn := range o.subs {
			subs = append(subs, fn)
		}
		o.mu.Unlock()
		for _, fn := range subs {
			fn(st)
		}
		o.dispatchMu.Unlock()
	}
}
