package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/polling"
	"github.com/agbru/pdcbench/internal/session"
)

const testPollInterval = 5 * time.Millisecond

// fakeService is an in-memory processing service. Experiments stay
// PROCESSING until finish is called for their mode.
type fakeService struct {
	mu        sync.Mutex
	uploadErr error
	startErr  map[experiment.Mode]error
	pollErr   map[experiment.Mode]error
	nextID    int
	modes     map[experiment.ID]experiment.Mode
	outcomes  map[experiment.Mode]experiment.StatusReport
	polls     map[experiment.Mode]int
	uploads   int
}

func newFakeService() *fakeService {
	return &fakeService{
		startErr: make(map[experiment.Mode]error),
		pollErr:  make(map[experiment.Mode]error),
		modes:    make(map[experiment.ID]experiment.Mode),
		outcomes: make(map[experiment.Mode]experiment.StatusReport),
		polls:    make(map[experiment.Mode]int),
	}
}

func (f *fakeService) UploadBatch(_ context.Context, files []experiment.UploadFile) (experiment.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return experiment.Batch{}, f.uploadErr
	}
	f.uploads++
	b := experiment.Batch{ID: experiment.ID(fmt.Sprintf("B%d", f.uploads)), Name: "test batch"}
	for i, file := range files {
		b.Files = append(b.Files, experiment.File{ID: experiment.ID(fmt.Sprint(i + 1)), Name: file.Name, SizeBytes: int64(len(file.Content))})
	}
	return b, nil
}

func (f *fakeService) StartExperiment(ctx context.Context, _ experiment.ID, mode experiment.Mode) (experiment.ID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.startErr[mode]; err != nil {
		return "", err
	}
	f.nextID++
	id := experiment.ID(fmt.Sprint(f.nextID))
	f.modes[id] = mode
	delete(f.outcomes, mode)
	return id, nil
}

func (f *fakeService) GetExperimentStatus(ctx context.Context, id experiment.ID) (experiment.StatusReport, error) {
	if err := ctx.Err(); err != nil {
		return experiment.StatusReport{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	mode, ok := f.modes[id]
	if !ok {
		return experiment.StatusReport{}, errors.New("experiment not found")
	}
	f.polls[mode]++
	if err := f.pollErr[mode]; err != nil {
		return experiment.StatusReport{}, err
	}
	if out, ok := f.outcomes[mode]; ok {
		out.ID = id
		out.Mode = mode
		return out, nil
	}
	return experiment.StatusReport{ID: id, Mode: mode, Status: experiment.StatusProcessing}, nil
}

func (f *fakeService) complete(mode experiment.Mode, seconds float64, results ...experiment.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[mode] = experiment.StatusReport{Status: experiment.StatusCompleted, DurationSeconds: &seconds, CPUCoresUsed: 1, Results: results}
}

func (f *fakeService) fail(mode experiment.Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[mode] = experiment.StatusReport{Status: experiment.StatusFailed}
}

func (f *fakeService) setPollErr(mode experiment.Mode, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollErr[mode] = err
}

func (f *fakeService) pollCount(mode experiment.Mode) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[mode]
}

// recordingRecorder captures every orchestration event.
type recordingRecorder struct {
	mu       sync.Mutex
	started  map[experiment.Mode]int
	finished map[experiment.Mode]experiment.Status
	polls    map[string]int
	speedup  float64
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{
		started:  make(map[experiment.Mode]int),
		finished: make(map[experiment.Mode]experiment.Status),
		polls:    make(map[string]int),
	}
}

func (r *recordingRecorder) RecordPoll(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls[outcome]++
}

func (r *recordingRecorder) ExperimentStarted(mode experiment.Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started[mode]++
}

func (r *recordingRecorder) ExperimentFinished(mode experiment.Mode, status experiment.Status, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished[mode] = status
}

func (r *recordingRecorder) SetRunning(experiment.Mode, bool) {}

func (r *recordingRecorder) SpeedupObserved(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speedup = v
}

func (r *recordingRecorder) lastSpeedup() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speedup
}

// newTestOrchestrator builds an orchestrator polling svc every
// testPollInterval, closed at test cleanup.
func newTestOrchestrator(t *testing.T, svc Service, store session.Store, opts ...Option) *Orchestrator {
	t.Helper()
	sched := polling.New(svc, polling.WithInterval(testPollInterval))
	o := New(svc, store, append([]Option{WithScheduler(sched)}, opts...)...)
	t.Cleanup(o.Close)
	return o
}

func uploadFiles(names ...string) []experiment.UploadFile {
	files := make([]experiment.UploadFile, len(names))
	for i, n := range names {
		files[i] = experiment.UploadFile{Name: n, Content: []byte("RIFF" + n)}
	}
	return files
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}
