package api

import (
	"context"
	"time"

	"github.com/Figu3/trevee-supply-api/cache"
	"github.com/Figu3/trevee-supply-api/rpcpool"
	"github.com/Figu3/trevee-supply-api/supply"
)

// SupplyProvider is the cache surface the supply handlers read from.
// *cache.SupplyCache implements it.
type SupplyProvider interface {
	GetCirculatingSupply(ctx context.Context) (string, cache.Status)
	GetTotalSupply(ctx context.Context) (string, cache.Status)
	GetDetailedBreakdown(ctx context.Context) (*supply.Breakdown, cache.Status)
	Clear()
	LastUpdated() time.Time
}

// HealthReporter exposes endpoint pool health for one chain. *evm.Client
// implements it.
type HealthReporter interface {
	Name() string
	HealthStatus() *rpcpool.HealthStatus
}
