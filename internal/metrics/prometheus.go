package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
// It registers on its own registry so a one-shot CLI run can dump exactly
// its metrics to a textfile.
type PrometheusRecorder struct {
	registry     *prometheus.Registry
	changesTotal *prometheus.CounterVec
	runsTotal    *prometheus.CounterVec
	retriesTotal prometheus.Counter
	runDuration  *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a new Prometheus-based metrics recorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		registry: reg,
		changesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "submitq_changes_total",
				Help: "Total number of changes classified by branch and status",
			},
			[]string{"branch", "status"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "submitq_runs_total",
				Help: "Total number of merge runs by branch and result",
			},
			[]string{"branch", "result"},
		),
		retriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "submitq_status_write_retries_total",
				Help: "Total number of change status writes retried after a concurrent update",
			},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "submitq_run_duration_seconds",
				Help:    "Duration of merge runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"branch"},
		),
	}
}

// Registry returns the registry the recorder's collectors live on.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// ObserveChange records the final status assigned to one change.
func (p *PrometheusRecorder) ObserveChange(branch, status string) {
	p.changesTotal.WithLabelValues(branch, status).Inc()
}

// ObserveRun records a finished run.
func (p *PrometheusRecorder) ObserveRun(branch, result string, duration time.Duration) {
	p.runsTotal.WithLabelValues(branch, result).Inc()
	p.runDuration.WithLabelValues(branch).Observe(duration.Seconds())
}

// IncStatusRetry counts a status write that lost an optimistic concurrency race.
func (p *PrometheusRecorder) IncStatusRetry() {
	p.retriesTotal.Inc()
}

// WriteTextfile writes the recorder's metrics in the text exposition format,
// for pickup by the node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
