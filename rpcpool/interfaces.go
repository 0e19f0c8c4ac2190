package rpcpool

import (
	"context"
)

// Client defines a generic interface for RPC clients that can be used in the pool.
// The EVM implementation wraps *ethclient.Client through an adapter.
type Client interface {
	// Ping performs a basic health check on the client
	Ping(ctx context.Context) error

	// Close closes the client connection
	Close() error
}

// ClientFactory creates chain-specific clients for a given URL.
// Each chain implementation provides this to create its specific client type.
type ClientFactory func(url string) (Client, error)

// HealthChecker defines the interface for checking endpoint health.
// Chain implementations supply chain-specific logic (e.g. verifying chain ID).
type HealthChecker interface {
	CheckHealth(ctx context.Context, client Client) error
}
