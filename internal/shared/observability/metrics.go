package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LexDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kite_lex_seconds",
		Help:    "Time spent lexing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kite_analysis_seconds",
		Help:    "Time spent on analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kite_diagnostics_total",
		Help: "Diagnostics reported, by severity.",
	}, []string{"severity"})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kite_graph_nodes_total",
		Help: "Files in the import graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kite_graph_edges_total",
		Help: "Resolved import edges in the import graph.",
	})

	UnitCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kite_unit_cache_hits_total",
		Help: "Analysed files served from the unit cache.",
	})

	UnitCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kite_unit_cache_misses_total",
		Help: "Analysed files that had to be lexed and indexed.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kite_watcher_events_total",
		Help: "File system events received by the watcher.",
	})

	HistoryRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kite_history_runs_total",
		Help: "Check runs written to the history store.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
