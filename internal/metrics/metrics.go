// Package metrics defines the Prometheus collectors exposed on the
// diagnostics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Directory fetch metrics
var (
	// DirectoryRequestsTotal counts directory fetches by outcome
	// (success, denied, unauthenticated, error).
	DirectoryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_requests_total",
			Help: "Directory fetches by outcome",
		},
		[]string{"outcome"},
	)

	// StaleResponsesDiscarded counts responses dropped because a newer
	// fetch generation had already started.
	StaleResponsesDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stale_responses_discarded_total",
			Help: "Responses discarded by the fetch generation check",
		},
	)

	// DirectoryRequestDuration tracks directory fetch latency in seconds
	DirectoryRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "directory_request_duration_seconds",
			Help:    "Directory fetch duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Quota metrics
var (
	// AccessDenialsTotal counts server-side quota/subscription rejections
	AccessDenialsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "access_denials_total",
			Help: "Quota or subscription rejections from the directory API",
		},
	)

	// StatusRefreshesTotal counts subscription status refreshes by result
	StatusRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_refreshes_total",
			Help: "Subscription status refreshes by result",
		},
		[]string{"result"},
	)
)

// Filter option cache metrics
var (
	OptionCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "option_cache_hits_total",
			Help: "Filter option list cache hits by kind",
		},
		[]string{"kind"},
	)

	OptionCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "option_cache_misses_total",
			Help: "Filter option list cache misses by kind",
		},
		[]string{"kind"},
	)
)
