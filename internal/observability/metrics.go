package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for extraction runs.
type Metrics struct {
	Runs            *prometheus.CounterVec // labels: outcome={success,error}
	RunActive       prometheus.Gauge
	RunDuration     prometheus.Histogram
	PiersProcessed  prometheus.Counter
	PiersSkipped    *prometheus.CounterVec // labels: reason={no_data,no_positive_reading,raster_unresolved}
	ResultsProduced prometheus.Counter
	CandidateNodes  prometheus.Histogram
	RasterCache     *prometheus.CounterVec // labels: result={hit,miss}
	LoaderErrors    *prometheus.CounterVec // labels: loader
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pier_dxv",
			Name:      "runs_total",
			Help:      "Extraction runs by outcome.",
		}, []string{"outcome"}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pier_dxv",
			Name:      "run_active",
			Help:      "1 while an extraction run is in progress.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pier_dxv",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extraction run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}),
		PiersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pier_dxv",
			Name:      "piers_processed_total",
			Help:      "Pier boundary nodes processed.",
		}),
		PiersSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pier_dxv",
			Name:      "piers_skipped_total",
			Help:      "Pier boundary nodes skipped, by reason.",
		}, []string{"reason"}),
		ResultsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pier_dxv",
			Name:      "results_produced_total",
			Help:      "Pier results emitted.",
		}),
		CandidateNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pier_dxv",
			Name:      "candidate_nodes",
			Help:      "Mesh nodes inside the search radius of a pier boundary node.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 250},
		}),
		RasterCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pier_dxv",
			Name:      "raster_cache_total",
			Help:      "Raster block cache lookups by result.",
		}, []string{"result"}),
		LoaderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pier_dxv",
			Name:      "loader_errors_total",
			Help:      "Result sink failures by loader.",
		}, []string{"loader"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Runs,
		m.RunActive,
		m.RunDuration,
		m.PiersProcessed,
		m.PiersSkipped,
		m.ResultsProduced,
		m.CandidateNodes,
		m.RasterCache,
		m.LoaderErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
