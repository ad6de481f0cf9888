// Package metrics exposes run metrics through a prometheus registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hoc"

// Metrics holds the collectors of one process. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec

	hcloudAPICallsTotal *prometheus.CounterVec
	hcloudAPILatency    *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "steps_total",
				Help:      "Total number of finished steps and compensations by phase and status",
			},
			[]string{"procedure", "phase", "status"},
		),

		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "step_duration_seconds",
				Help:      "Duration of step commands in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4min
			},
			[]string{"procedure", "phase"},
		),

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "runs_total",
				Help:      "Total number of procedure runs by outcome",
			},
			[]string{"procedure", "outcome"},
		),

		hcloudAPICallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "hcloud",
				Name:      "api_calls_total",
				Help:      "Total number of Hetzner Cloud API calls by operation and result",
			},
			[]string{"operation", "result"},
		),

		hcloudAPILatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "hcloud",
				Name:      "api_latency_seconds",
				Help:      "Latency of Hetzner Cloud API calls in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~25s
			},
			[]string{"operation"},
		),
	}

	m.Registry.MustRegister(
		m.stepsTotal,
		m.stepDuration,
		m.runsTotal,
		m.hcloudAPICallsTotal,
		m.hcloudAPILatency,
	)
	return m
}

// ObserveStep records a finished step or compensation.
func (m *Metrics) ObserveStep(procedure, phase, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(procedure, phase, status).Inc()
	if d > 0 {
		m.stepDuration.WithLabelValues(procedure, phase).Observe(d.Seconds())
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(procedure, outcome string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(procedure, outcome).Inc()
}

// ObserveHCloudCall records a Hetzner Cloud API call.
func (m *Metrics) ObserveHCloudCall(operation string, err error, latency time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.hcloudAPICallsTotal.WithLabelValues(operation, result).Inc()
	m.hcloudAPILatency.WithLabelValues(operation).Observe(latency.Seconds())
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
