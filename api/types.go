package api

import (
	"time"

	"github.com/Figu3/trevee-supply-api/rpcpool"
	"github.com/Figu3/trevee-supply-api/supply"
)

// SupplyDetailsResponse is the GET /supply-details payload: the full
// breakdown plus the freshness of the cache entry that produced it.
type SupplyDetailsResponse struct {
	*supply.Breakdown
	CacheStatus string `json:"cache_status"`
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status  string        `json:"status"`
	Version string        `json:"version"`
	Cache   CacheHealth   `json:"cache"`
	Chains  []ChainHealth `json:"chains"`
}

// CacheHealth reports the age of the cached supply snapshot.
type CacheHealth struct {
	Populated   bool      `json:"populated"`
	LastUpdated time.Time `json:"last_updated"`
	Age         string    `json:"age,omitempty"`
}

// ChainHealth is one chain's endpoint pool health.
type ChainHealth struct {
	Name string `json:"name"`
	*rpcpool.HealthStatus
}

// MessageResponse acknowledges a state-changing request.
type MessageResponse struct {
	Message string `json:"message"`
}
