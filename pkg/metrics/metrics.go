// Package metrics exposes the Prometheus registry used by gh-user-sync.
// All metrics are defined in their respective packages (client, ratelimit,
// cache, pagination, detail, retry, server) and registered via promauto, so
// this package only documents them and serves the exposition endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package registers its metrics with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer Handler reads from.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - usersync_requests_total{endpoint, status} (Counter): GitHub requests by endpoint and HTTP status
//   - usersync_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - usersync_fetch_errors_total{kind} (Counter): Failed fetches by error kind
//     (invalid_request, no_response_body, decoding_failure, server_error)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - usersync_rate_limit_remaining (Gauge): Requests left in the current window
//   - usersync_rate_limit_blocks_total (Counter): Requests refused locally while exhausted
//
// Cache Metrics (pkg/cache):
//   - usersync_cache_hits_total{backend} (Counter): Cached list found
//   - usersync_cache_misses_total{backend} (Counter): No cached list
//   - usersync_cache_size_bytes{backend} (Gauge): Size of the last written list
//   - usersync_cache_errors_total{backend, operation} (Counter): Swallowed cache errors
//
// Synchronizer Metrics (pkg/pagination):
//   - usersync_pages_loaded_total (Counter): Pages appended to the list
//   - usersync_items_loaded_total (Counter): Users appended to the list
//   - usersync_load_skipped_total (Counter): Loads skipped while a fetch was in flight
//   - usersync_load_failures_total{kind} (Counter): Failed loads by error kind
//   - usersync_items (Gauge): Current list length
//
// Detail Metrics (pkg/detail):
//   - usersync_details_fetched_total{result} (Counter): Profiles fetched (ok, error)
//   - usersync_detail_batch_duration_seconds (Histogram): Batch duration
//
// Retry Metrics (pkg/retry):
//   - usersync_retries_total (Counter): Retry attempts
//   - usersync_retry_backoff_seconds (Histogram): Backoff before a retry
//   - usersync_retry_exhausted_total (Counter): Operations that exhausted their attempts
//
// HTTP Service Metrics (internal/server):
//   - usersync_http_requests_total{route, code} (Counter): Served requests
//   - usersync_http_request_duration_seconds{route} (Histogram): Handler latency
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(usersync_cache_hits_total[5m])) /
//   (sum(rate(usersync_cache_hits_total[5m])) + sum(rate(usersync_cache_misses_total[5m])))
//
//   # Rate Limit Status
//   usersync_rate_limit_remaining < 10
//
//   # Fetch Error Rate
//   sum by (kind) (rate(usersync_fetch_errors_total[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(usersync_request_duration_seconds_bucket[5m]))
