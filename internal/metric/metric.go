// Package metric has Prometheus metrics for pipeline runs.
package metric

import (
	"net/http"
	"time"

	"github.com/huangsam/ecgscope/core/agg"
	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ecgscope"

// Run status label values.
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// Metrics contains all pipeline metrics.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec
	StagesTotal      *prometheus.CounterVec
	SamplesCollected *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	MeanRRMs         prometheus.Histogram
	ActiveRuns       prometheus.Gauge
	SamplesReceived  prometheus.CounterFunc

	received *agg.Collector
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	received := &agg.Collector{}
	return &Metrics{
		received: received,
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by profile and outcome",
			},
			[]string{"profile", "status"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "errors_total",
				Help:      "Total number of failed runs by error class",
			},
			[]string{"profile", "class"},
		),

		StagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_entries_total",
				Help:      "Total number of stage entries",
			},
			[]string{"profile", "stage"},
		),

		SamplesCollected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "samples_collected_total",
				Help:      "Total number of raw samples accumulated",
			},
			[]string{"profile"},
		),

		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "run_duration_seconds",
				Help:      "Pipeline run duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"profile"},
		),

		// No recording label: simulated recordings get fresh IDs on every run
		MeanRRMs: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "mean_rr_milliseconds",
				Help:      "Mean RR interval of full-trace runs",
				Buckets:   prometheus.LinearBuckets(300, 100, 18),
			},
		),

		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "active_runs",
				Help:      "Number of runs currently collecting or processing",
			},
		),

		SamplesReceived: prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "samples_received_total",
				Help:      "Total number of samples received from device streams, including runs still collecting",
			},
			func() float64 { return float64(received.Count()) },
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.RunsTotal, m.ErrorsTotal, m.StagesTotal, m.SamplesCollected, m.RunDuration, m.MeanRRMs, m.ActiveRuns, m.SamplesReceived}
}

// SampleCollector returns the collector counting samples as they arrive.
func (m *Metrics) SampleCollector() *agg.Collector {
	return m.received
}

// OnStage records a stage transition. Entering collection marks a run active.
func (m *Metrics) OnStage(_ string, profile schema.Profile, stage schema.Stage) {
	m.StagesTotal.WithLabelValues(string(profile), string(stage)).Inc()
	if stage == schema.StageCollecting {
		m.ActiveRuns.Inc()
	}
}

// OnRunDone records the outcome of a run.
func (m *Metrics) OnRunDone(profile schema.Profile, result schema.PipelineResult, err error, elapsed time.Duration) {
	p := string(profile)
	// Runs aborted before collecting report zero elapsed time
	if elapsed > 0 {
		m.ActiveRuns.Dec()
	}
	m.RunDuration.WithLabelValues(p).Observe(elapsed.Seconds())

	if err != nil {
		m.RunsTotal.WithLabelValues(p, StatusFailed).Inc()
		m.ErrorsTotal.WithLabelValues(p, contract.Classify(err).String()).Inc()
		return
	}

	status := StatusCompleted
	if result.Partial {
		status = StatusPartial
	}
	m.RunsTotal.WithLabelValues(p, status).Inc()
	m.SamplesCollected.WithLabelValues(p).Add(float64(result.RawSamples))
	if result.Interval != nil {
		m.MeanRRMs.Observe(result.Interval.MeanMs)
	}
}

// Registry owns a Prometheus registry with the pipeline and runtime metrics.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
}

// NewRegistry creates a registry with pipeline metrics and Go runtime collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	reg.MustRegister(m.collectors()...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{prometheusRegistry: reg, Metrics: m}
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
}
