package evm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Figu3/trevee-supply-api/rpcpool"
)

// evmClientAdapter wraps ethclient.Client to implement rpcpool.Client interface
type evmClientAdapter struct {
	client *ethclient.Client
}

// Ping performs a basic health check on the EVM client
func (a *evmClientAdapter) Ping(ctx context.Context) error {
	// Simple connectivity check - get the latest block number
	_, err := a.client.BlockNumber(ctx)
	return err
}

// Close closes the EVM client connection
func (a *evmClientAdapter) Close() error {
	a.client.Close()
	return nil
}

// GetEthClient returns the underlying ethclient.Client
func (a *evmClientAdapter) GetEthClient() *ethclient.Client {
	return a.client
}

// CreateEVMClientFactory returns a ClientFactory for EVM endpoints
func CreateEVMClientFactory() rpcpool.ClientFactory {
	return func(url string) (rpcpool.Client, error) {
		ethClient, err := ethclient.Dial(url)
		if err != nil {
			return nil, err
		}

		return &evmClientAdapter{
			client: ethClient,
		}, nil
	}
}

// ethClientFrom extracts the ethclient.Client from a pooled client
func ethClientFrom(client rpcpool.Client) (*ethclient.Client, error) {
	adapter, ok := client.(*evmClientAdapter)
	if !ok {
		return nil, fmt.Errorf("invalid client type: expected evmClientAdapter, got %T", client)
	}
	return adapter.GetEthClient(), nil
}

// CreateEVMHealthChecker creates a health checker for EVM endpoints
func CreateEVMHealthChecker(expectedChainID int64) rpcpool.HealthChecker {
	return &evmHealthChecker{
		expectedChainID: expectedChainID,
	}
}

// evmHealthChecker implements rpcpool.HealthChecker for EVM endpoints
type evmHealthChecker struct {
	expectedChainID int64
}

// CheckHealth verifies connectivity and that the endpoint serves the expected
// network
func (h *evmHealthChecker) CheckHealth(ctx context.Context, client rpcpool.Client) error {
	ethClient, err := ethClientFrom(client)
	if err != nil {
		return err
	}

	// Check 1: Get current block number (tests basic connectivity)
	blockNumber, err := ethClient.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get block number: %w", err)
	}

	if blockNumber == 0 {
		return fmt.Errorf("block number is zero, chain may not be synced")
	}

	// Check 2: Verify chain ID (tests that we're connected to the right network)
	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain ID: %w", err)
	}

	if chainID.Int64() != h.expectedChainID {
		return fmt.Errorf("chain ID mismatch: expected %d, got %d",
			h.expectedChainID, chainID.Int64())
	}

	return nil
}
