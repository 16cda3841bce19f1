package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks successful loads by backend
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usersync_cache_hits_total",
			Help: "Total number of user list cache hits",
		},
		[]string{"backend"},
	)

	// CacheMisses tracks loads that found nothing usable
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usersync_cache_misses_total",
			Help: "Total number of user list cache misses",
		},
		[]string{"backend"},
	)

	// CacheSize tracks the size of the last written list in bytes
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "usersync_cache_size_bytes",
			Help: "Size of the cached user list in bytes",
		},
		[]string{"backend"},
	)

	// CacheErrors tracks swallowed cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usersync_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"backend", "operation"}, // "load", "save", "clear", "decode", "encode"
	)
)
