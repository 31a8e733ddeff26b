// Package metrics provides Prometheus metrics for the chanmap pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChannelsProcessedTotal counts catalog channels seen by processing passes.
	ChannelsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chanmap_channels_processed_total",
		Help: "Total number of catalog channels examined by processing passes.",
	})

	// ChannelsRenamedTotal counts proposed renames by reference source.
	ChannelsRenamedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chanmap_channels_renamed_total",
		Help: "Total number of proposed renames, by reference source.",
	}, []string{"matcher"})

	// ChannelsSkippedTotal counts skipped channels by reason category.
	ChannelsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chanmap_channels_skipped_total",
		Help: "Total number of skipped channels, by reason category.",
	}, []string{"reason"})

	// ProcessDuration observes the wall time of a full processing pass.
	ProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chanmap_process_duration_seconds",
		Help:    "Duration of a full processing pass over the catalog.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// CatalogRequestsTotal counts catalog API requests by operation and result.
	CatalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chanmap_catalog_requests_total",
		Help: "Total number of catalog API requests, by operation and result.",
	}, []string{"operation", "result"})

	// RenamesAppliedTotal counts renames written back to the catalog.
	RenamesAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chanmap_renames_applied_total",
		Help: "Total number of renames applied to the catalog.",
	})
)

// Skip reason label values. Coarse categories only, the exact reason strings
// carry callsigns and would explode cardinality.
const (
	SkipAlreadyCorrect  = "already_correct"
	SkipNoMatch         = "no_match"
	SkipUnknownCallsign = "unknown_callsign"
	SkipMissingFields   = "missing_fields"
)

// RecordRename increments the rename counter for the given reference source.
func RecordRename(matcher string) {
	ChannelsRenamedTotal.WithLabelValues(matcher).Inc()
}

// RecordSkip increments the skip counter for the given reason category.
func RecordSkip(reason string) {
	ChannelsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordCatalogRequest increments the catalog request counter.
func RecordCatalogRequest(operation, result string) {
	CatalogRequestsTotal.WithLabelValues(operation, result).Inc()
}
