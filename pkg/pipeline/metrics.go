package pipeline

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the orchestrator's Prometheus instrumentation, registered
// into its own isolated registry rather than the global default so a
// pipeline can be embedded in a larger process without clashing.
type Metrics struct {
	registry        *prometheus.Registry
	itemsProcessed  *prometheus.CounterVec
	itemDuration    *prometheus.HistogramVec
	activeWorkers   prometheus.Gauge
}

// NewMetrics builds and registers the orchestrator's metric set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		itemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_toolkit_pipeline_items_total",
			Help: "Pipeline items processed, by stage and outcome.",
		}, []string{"stage", "outcome"}),
		itemDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evidence_toolkit_pipeline_item_duration_seconds",
			Help:    "Per-item processing duration, by stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evidence_toolkit_pipeline_active_workers",
			Help: "Currently active analyze-stage workers.",
		}),
	}
	reg.MustRegister(m.itemsProcessed, m.itemDuration, m.activeWorkers)
	return m
}

// Handler exposes the pipeline's isolated registry over HTTP, for
// embedding under a process-wide /metrics mux.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeOutcome(stage, outcome string, seconds float64) {
	m.itemsProcessed.WithLabelValues(stage, outcome).Inc()
	m.itemDuration.WithLabelValues(stage).Observe(seconds)
}
