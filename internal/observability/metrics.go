// Package observability holds the process-wide Prometheus collectors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "specgraph_graph_nodes",
		Help: "Number of nodes in the most recently built dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "specgraph_graph_edges",
		Help: "Number of edges in the most recently built dependency graph.",
	})

	ParseWarningsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "specgraph_parse_warnings_total",
		Help: "Total number of non-fatal document parse warnings.",
	})

	DroppedEdgesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "specgraph_dropped_edges_total",
		Help: "Total number of declared edges dropped at build time.",
	}, []string{"reason"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "specgraph_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})
)

// ObserveSince records the elapsed time of task in AnalysisDuration.
// Typical use: defer observability.ObserveSince("impact", time.Now()).
func ObserveSince(task string, start time.Time) {
	AnalysisDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
}
