// Package metrics exposes the Prometheus collectors for the supply service.
// Everything registers on the default registry and is served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchDuration observes wall-clock duration of full cross-chain fetches.
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tsupply",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of cross-chain supply fetches.",
		Buckets:   prometheus.DefBuckets,
	})

	// CacheRequests counts cache reads by output kind and freshness status.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsupply",
		Name:      "cache_requests_total",
		Help:      "Cache reads by output kind and status.",
	}, []string{"output", "status"})

	// CacheRefreshes counts refresh outcomes by trigger (sync, background, warm).
	CacheRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsupply",
		Name:      "cache_refreshes_total",
		Help:      "Cache refresh attempts by trigger and result.",
	}, []string{"trigger", "result"})

	// EndpointRequests counts individual endpoint calls by chain and result.
	EndpointRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsupply",
		Name:      "endpoint_requests_total",
		Help:      "RPC endpoint calls by chain, endpoint, and result.",
	}, []string{"chain", "endpoint", "result"})

	// ChainFetchFailures counts chain-level fetch exhaustions.
	ChainFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsupply",
		Name:      "chain_fetch_failures_total",
		Help:      "Supply fetches that exhausted all retries for a chain.",
	}, []string{"chain"})

	// CirculatingSupply reports the last successfully computed global
	// circulating supply in whole tokens. A float gauge cannot carry full
	// 18-decimal precision; exact values come from the API.
	CirculatingSupply = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tsupply",
		Name:      "circulating_supply_tokens",
		Help:      "Last computed global circulating supply in whole tokens.",
	})
)

// RecordEndpointRequest tracks one endpoint call outcome.
func RecordEndpointRequest(chain, endpoint string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	EndpointRequests.WithLabelValues(chain, endpoint, result).Inc()
}

// RecordCacheRequest tracks one cache read outcome.
func RecordCacheRequest(output, status string) {
	CacheRequests.WithLabelValues(output, status).Inc()
}

// RecordCacheRefresh tracks one refresh attempt outcome.
func RecordCacheRefresh(trigger string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	CacheRefreshes.WithLabelValues(trigger, result).Inc()
}
