package geo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// providerRequestsTotal counts provider calls by outcome (found, empty, error).
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "internmap_geo_provider_requests_total",
			Help: "External geo provider calls by provider, capability and outcome.",
		},
		[]string{"provider", "capability", "outcome"},
	)

	// cacheLookupsTotal counts cache hits and misses per capability.
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "internmap_geo_cache_lookups_total",
			Help: "Geo cache lookups by capability and result (hit, miss).",
		},
		[]string{"capability", "result"},
	)
)
