package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the synchronizer.
var (
	pagesLoadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usersync_pages_loaded_total",
		Help: "Total number of pages appended to the user list",
	})

	itemsLoadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usersync_items_loaded_total",
		Help: "Total number of users appended from the network",
	})

	loadSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usersync_load_skipped_total",
		Help: "Total number of LoadNext calls ignored because a fetch was in flight",
	})

	loadFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usersync_load_failures_total",
		Help: "Total number of failed page loads by error kind",
	}, []string{"kind"})

	itemsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "usersync_items",
		Help: "Number of users currently held in memory",
	})
)
