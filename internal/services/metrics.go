package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// searchReqs counts search calls by the backend that served them.
	searchReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sermon_search_requests_total",
			Help: "Total number of search calls by serving backend.",
		},
		[]string{"backend"},
	)

	// searchFallbacks counts degradations to the in-memory backend.
	// reason is one of unavailable, error or recheck.
	searchFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sermon_search_fallbacks_total",
			Help: "Total number of searches served by the fallback backend instead of the index.",
		},
		[]string{"reason"},
	)

	searchLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sermon_search_duration_seconds",
			Help:    "Duration of search calls in seconds.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"backend"},
	)

	// importedDocs counts documents written by Import.
	importedDocs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sermon_imported_documents_total",
			Help: "Total number of documents imported or replaced.",
		},
	)
)

func init() {
	prometheus.MustRegister(searchReqs, searchFallbacks, searchLat, importedDocs)
}

func observeSearch(backend string, d time.Duration) {
	searchReqs.WithLabelValues(backend).Inc()
	searchLat.WithLabelValues(backend).Observe(d.Seconds())
}

func countFallback(reason string) {
	searchFallbacks.WithLabelValues(reason).Inc()
}
