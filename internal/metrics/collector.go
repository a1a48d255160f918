// Package metrics instruments the orchestrator with Prometheus and reads
// client runtime memory statistics for the dashboard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/pdcbench/internal/experiment"
)

const namespace = "pdcbench"

// Collector records experiment and polling events. Each Collector owns its
// registry so several instances can coexist in one process.
type Collector struct {
	registry *prometheus.Registry
	started  *prometheus.CounterVec
	finished *prometheus.CounterVec
	polls    *prometheus.CounterVec
	duration *prometheus.GaugeVec
	running  *prometheus.GaugeVec
	speedup  prometheus.Gauge
	handler  http.Handler
}

// NewCollector creates a Collector with Go runtime metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "experiments_started_total",
			Help:      "Experiments that entered PROCESSING, by mode.",
		}, []string{"mode"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "experiments_finished_total",
			Help:      "Experiments that reached a terminal status, by mode and status.",
		}, []string{"mode", "status"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_polls_total",
			Help:      "Status queries sent to the service, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "experiment_duration_seconds",
			Help:      "Service-reported duration of the last completed experiment, by mode.",
		}, []string{"mode"}),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "experiment_running",
			Help:      "1 while an experiment of the mode is PROCESSING.",
		}, []string{"mode"}),
		speedup: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speedup_ratio",
			Help:      "Last derived SERIAL/PARALLEL speedup.",
		}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.started, c.finished, c.polls, c.duration, c.running, c.speedup,
	)
	for _, m := range experiment.Modes() {
		c.running.WithLabelValues(string(m)).Set(0)
	}
	c.handler = promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler { return c.handler }

// WritePrometheus writes the metrics to w.
func (c *Collector) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	c.handler.ServeHTTP(w, r)
}

// RecordPoll counts one status query.
func (c *Collector) RecordPoll(outcome string) {
	c.polls.WithLabelValues(outcome).Inc()
}

// ExperimentStarted counts an experiment entering PROCESSING.
func (c *Collector) ExperimentStarted(mode experiment.Mode) {
	c.started.WithLabelValues(string(mode)).Inc()
}

// ExperimentFinished counts a terminal transition and, for COMPLETED runs,
// records the reported duration.
func (c *Collector) ExperimentFinished(mode experiment.Mode, status experiment.Status, durationSeconds float64) {
	c.finished.WithLabelValues(string(mode), string(status)).Inc()
	if status == experiment.StatusCompleted && durationSeconds > 0 {
		c.duration.WithLabelValues(string(mode)).Set(durationSeconds)
	}
}

// SetRunning flags whether mode is PROCESSING.
func (c *Collector) SetRunning(mode experiment.Mode, running bool) {
	v := 0.0
	if running {
		v = 1
	}
	c.running.WithLabelValues(string(mode)).Set(v)
}

// SpeedupObserved records the latest derived speedup.
func (c *Collector) SpeedupObserved(speedup float64) {
	c.speedup.Set(speedup)
}
