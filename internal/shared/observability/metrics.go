package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dartbridge_phase_seconds",
		Help:    "Time spent in each analysis pipeline phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dartbridge_graph_nodes_total",
		Help: "Total number of files in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dartbridge_graph_edges_total",
		Help: "Total number of import edges in the dependency graph.",
	})

	DirtyFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dartbridge_dirty_files",
		Help: "Number of files selected for re-analysis in the current run.",
	})

	FilesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dartbridge_files_extracted_total",
		Help: "Total number of files whose declaration IR was extracted.",
	})

	ExtractionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dartbridge_extraction_failures_total",
		Help: "Total number of per-file parse or extraction failures.",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dartbridge_cache_hits_total",
		Help: "Total number of declaration cache hits.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dartbridge_cache_misses_total",
		Help: "Total number of declaration cache misses.",
	})

	CacheWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dartbridge_cache_write_errors_total",
		Help: "Total number of failed declaration cache writes.",
	})

	RegisteredSymbols = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dartbridge_registered_symbols",
		Help: "Current number of type descriptors in the symbol registry.",
	})

	ValidationErrors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dartbridge_validation_errors",
		Help: "Structural errors reported by the last validation pass.",
	})

	ValidationWarnings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dartbridge_validation_warnings",
		Help: "Structural warnings reported by the last validation pass.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dartbridge_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
