package rpcpool

import "time"

// HealthStatus represents the health of one chain's RPC pool
type HealthStatus struct {
	ChainID          string           `json:"chain_id"`
	TotalEndpoints   int              `json:"total_endpoints"`
	HealthyCount     int              `json:"healthy_count"`
	DegradedCount    int              `json:"degraded_count"`
	UnreachableCount int              `json:"unreachable_count"`
	Endpoints        []EndpointStatus `json:"endpoints"`
}

// EndpointStatus represents the status of a single endpoint
type EndpointStatus struct {
	URL            string    `json:"url"`
	State          string    `json:"state"`
	RequestCount   uint64    `json:"request_count"`
	FailureCount   uint64    `json:"failure_count"`
	AverageLatency int64     `json:"average_latency_ms"`
	LastUsed       time.Time `json:"last_used"`
	LastError      string    `json:"last_error,omitempty"`
}
