package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chakrals_parsing_seconds",
		Help:    "Time spent parsing a source document.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	ParseCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chakrals_parse_cache_hits_total",
		Help: "Total number of parse requests served from the cache.",
	})

	ParseCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chakrals_parse_cache_misses_total",
		Help: "Total number of parse requests that required a fresh parse.",
	})

	ValidationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chakrals_validation_seconds",
		Help:    "Time spent validating a document, settings fetch included.",
		Buckets: prometheus.DefBuckets,
	})

	DiagnosticsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chakrals_diagnostics_published_total",
		Help: "Total number of diagnostics published to the client.",
	})

	WatchedEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chakrals_watched_events_total",
		Help: "Total number of watched-file events received, by category.",
	}, []string{"category"})

	BatchReadFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chakrals_batch_read_failures_total",
		Help: "Total number of files that failed to load during a batch read.",
	})

	TrackedScopes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chakrals_tracked_scopes_total",
		Help: "Current number of workspace scopes with a known dependency state.",
	})

	HoverRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chakrals_hover_requests_total",
		Help: "Total number of hover requests, by outcome.",
	}, []string{"outcome"})
)
