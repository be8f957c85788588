package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mhw_scanner"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// scrape/index pipeline and the RAG query path.
type Metrics struct {
	ScrapeRuns        *prometheus.CounterVec // labels: outcome={success,already_exists,error}
	DocumentsArchived prometheus.Counter
	PipelineRunning   prometheus.Gauge

	IndexRebuilds        prometheus.Counter
	IndexRebuildDuration prometheus.Histogram
	ChunksInIndex        prometheus.Gauge

	Queries           prometheus.Counter
	QueriesNoContext  prometheus.Counter
	RetrievalDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ScrapeRuns,
		m.DocumentsArchived,
		m.PipelineRunning,
		m.IndexRebuilds,
		m.IndexRebuildDuration,
		m.ChunksInIndex,
		m.Queries,
		m.QueriesNoContext,
		m.RetrievalDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ScrapeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_runs_total",
			Help:      "Scrape attempts per source by outcome.",
		}, []string{"outcome"}),
		DocumentsArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_archived_total",
			Help:      "Total new discussion documents written to the archive.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a scrape/index cycle is executing.",
		}),
		IndexRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_rebuilds_total",
			Help:      "Total chunk index rebuilds.",
		}),
		IndexRebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_rebuild_duration_seconds",
			Help:      "Duration of a full load-chunk-embed-replace cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ChunksInIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks_in_index",
			Help:      "Chunks stored by the last index rebuild.",
		}),
		Queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total RAG questions answered.",
		}),
		QueriesNoContext: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_no_context_total",
			Help:      "Questions for which no chunk passed the relevance cutoff.",
		}),
		RetrievalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Duration of query embedding plus similarity search.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
