package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/Figu3/trevee-supply-api/config"
	"github.com/Figu3/trevee-supply-api/rpcpool"
)

// Client performs read-only ERC20 calls against one EVM chain, spreading each
// call over the chain's endpoint pool in configured preference order.
type Client struct {
	logger              zerolog.Logger
	name                string
	caip2               string
	chainID             int64 // Numeric chain ID extracted from CAIP-2
	tokenAddress        ethcommon.Address
	erc20               abi.ABI
	pool                *rpcpool.Pool
	healthCheckInterval time.Duration
}

// NewClient creates a new EVM chain client
func NewClient(chainConfig *config.ChainConfig, appConfig *config.Config, logger zerolog.Logger) (*Client, error) {
	if chainConfig == nil {
		return nil, fmt.Errorf("chain config is nil")
	}
	if appConfig == nil {
		return nil, fmt.Errorf("app config is nil")
	}

	// Parse CAIP-2 chain ID (e.g., "eip155:1")
	chainID, err := parseEVMChainID(chainConfig.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chain ID: %w", err)
	}

	erc20, err := ParseERC20ReadABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	log := logger.With().
		Str("component", "evm_client").
		Str("chain", chainConfig.Name).
		Logger()

	pool := rpcpool.NewPool(
		chainConfig.ChainID,
		chainConfig.RPCURLs,
		appConfig.RPCTimeout(),
		CreateEVMClientFactory(),
		log,
	)
	if pool == nil {
		return nil, fmt.Errorf("no RPC URLs configured for chain %s", chainConfig.Name)
	}

	return &Client{
		logger:              log,
		name:                chainConfig.Name,
		caip2:               chainConfig.ChainID,
		chainID:             chainID,
		tokenAddress:        ethcommon.HexToAddress(appConfig.TokenAddress),
		erc20:               erc20,
		pool:                pool,
		healthCheckInterval: time.Duration(appConfig.HealthCheckIntervalSeconds) * time.Second,
	}, nil
}

// Start dials the chain's endpoints and begins health monitoring when enabled.
// Dial failures are tolerated; endpoints are redialed on use.
func (c *Client) Start(ctx context.Context) {
	c.logger.Info().
		Int64("chain_id", c.chainID).
		Int("rpc_url_count", len(c.pool.GetEndpoints())).
		Msg("starting EVM chain client")

	c.pool.Start(ctx, c.healthCheckInterval, CreateEVMHealthChecker(c.chainID))
}

// Stop shuts down the endpoint pool
func (c *Client) Stop() {
	c.pool.Stop()
	c.logger.Info().Msg("EVM chain client stopped")
}

// Name returns the configured chain name
func (c *Client) Name() string {
	return c.name
}

// ChainID returns the CAIP-2 chain identifier
func (c *Client) ChainID() string {
	return c.caip2
}

// GetChainID returns the numeric chain ID
func (c *Client) GetChainID() int64 {
	return c.chainID
}

// HealthStatus summarizes the chain's endpoint health
func (c *Client) HealthStatus() *rpcpool.HealthStatus {
	return c.pool.HealthStatus()
}

// TotalSupply returns the token's total supply in smallest units.
func (c *Client) TotalSupply(ctx context.Context) (*big.Int, error) {
	results, err := c.call(ctx, "totalSupply")
	if err != nil {
		return nil, err
	}

	supply, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected totalSupply result type %T", results[0])
	}
	return supply, nil
}

// BalanceOf returns the token balance of address in smallest units.
func (c *Client) BalanceOf(ctx context.Context, address string) (*big.Int, error) {
	results, err := c.call(ctx, "balanceOf", ethcommon.HexToAddress(address))
	if err != nil {
		return nil, err
	}

	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}
	return balance, nil
}

// Decimals returns the token's decimal precision.
func (c *Client) Decimals(ctx context.Context) (uint8, error) {
	results, err := c.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}

	decimals, ok := results[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals result type %T", results[0])
	}
	return decimals, nil
}

// call packs and performs one read-only contract call against the token,
// walking the endpoint pool in preference order. The returned error is the
// pool's verdict for the whole pass; retrying the pass is the caller's concern.
func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.erc20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	msg := ethereum.CallMsg{
		To:   &c.tokenAddress,
		Data: data,
	}

	var results []interface{}
	err = c.pool.Execute(ctx, method, func(ctx context.Context, client rpcpool.Client) error {
		ethClient, err := ethClientFrom(client)
		if err != nil {
			return err
		}

		ret, err := ethClient.CallContract(ctx, msg, nil)
		if err != nil {
			return err
		}

		out, err := c.erc20.Unpack(method, ret)
		if err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
		results = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("empty %s result", method)
	}
	return results, nil
}

// parseEVMChainID extracts the numeric chain ID from CAIP-2 format
func parseEVMChainID(caip2 string) (int64, error) {
	// Expected format: "eip155:1"
	parts := strings.Split(caip2, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid CAIP-2 format: %s", caip2)
	}

	if parts[0] != "eip155" {
		return 0, fmt.Errorf("not an EVM chain: %s", parts[0])
	}

	var chainID int64
	if _, err := fmt.Sscanf(parts[1], "%d", &chainID); err != nil {
		return 0, fmt.Errorf("failed to parse chain ID: %w", err)
	}

	return chainID, nil
}
