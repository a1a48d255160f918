package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/orchestration"
	"github.com/agbru/pdcbench/internal/polling"
)

var (
	_ orchestration.Recorder = (*Collector)(nil)
	_ polling.Recorder       = (*Collector)(nil)
)

func TestNewCollector(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	if c.Registry() == nil || c.Handler() == nil {
		t.Fatal("collector is not initialized")
	}
	// Independent registries: a second collector must not panic on
	// duplicate registration.
	_ = NewCollector()
}

func TestCollector_Events(t *testing.T) {
	t.Parallel()
	c := NewCollector()

	c.ExperimentStarted(experiment.ModeSerial)
	c.ExperimentStarted(experiment.ModeSerial)
	c.ExperimentStarted(experiment.ModeParallel)
	c.ExperimentFinished(experiment.ModeSerial, experiment.StatusCompleted, 10)
	c.ExperimentFinished(experiment.ModeParallel, experiment.StatusFailed, 0)
	c.RecordPoll(polling.OutcomeOK)
	c.RecordPoll(polling.OutcomeOK)
	c.RecordPoll(polling.OutcomeError)
	c.SetRunning(experiment.ModeParallel, true)
	c.SpeedupObserved(4)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"serial started", testutil.ToFloat64(c.started.WithLabelValues("SERIAL")), 2},
		{"parallel started", testutil.ToFloat64(c.started.WithLabelValues("PARALLEL")), 1},
		{"serial completed", testutil.ToFloat64(c.finished.WithLabelValues("SERIAL", "COMPLETED")), 1},
		{"parallel failed", testutil.ToFloat64(c.finished.WithLabelValues("PARALLEL", "FAILED")), 1},
		{"ok polls", testutil.ToFloat64(c.polls.WithLabelValues(polling.OutcomeOK)), 2},
		{"error polls", testutil.ToFloat64(c.polls.WithLabelValues(polling.OutcomeError)), 1},
		{"serial duration", testutil.ToFloat64(c.duration.WithLabelValues("SERIAL")), 10},
		{"parallel running", testutil.ToFloat64(c.running.WithLabelValues("PARALLEL")), 1},
		{"serial idle", testutil.ToFloat64(c.running.WithLabelValues("SERIAL")), 0},
		{"speedup", testutil.ToFloat64(c.speedup), 4},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	c.SetRunning(experiment.ModeParallel, false)
	if v := testutil.ToFloat64(c.running.WithLabelValues("PARALLEL")); v != 0 {
		t.Errorf("parallel running after SetRunning(false) = %v", v)
	}
}

func TestCollector_WritePrometheus(t *testing.T) {
	t.Parallel()
	c := NewCollector()
	c.ExperimentStarted(experiment.ModeSerial)
	c.RecordPoll(polling.OutcomeTerminal)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	c.WritePrometheus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"pdcbench_experiments_started_total",
		"pdcbench_status_polls_total",
		"pdcbench_experiment_running",
		"pdcbench_speedup_ratio",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output should contain %s", want)
		}
	}
}
