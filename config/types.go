package config

import (
	"fmt"
	"time"
)

// TotalSupplyPolicy selects how the global total supply is derived from the
// per-chain totals.
type TotalSupplyPolicy string

const (
	// TotalSupplyPolicySum adds every chain's total supply together.
	TotalSupplyPolicySum TotalSupplyPolicy = "sum"

	// TotalSupplyPolicyCanonical reports the canonical chain's total supply
	// as the global total (circulating is still summed per chain).
	TotalSupplyPolicyCanonical TotalSupplyPolicy = "canonical-chain"
)

type Config struct {
	// Log Config
	LogLevel   int    `json:"log_level"`   // e.g., 0 = debug, 1 = info, etc.
	LogFormat  string `json:"log_format"`  // "json" or "console"
	LogSampler bool   `json:"log_sampler"` // if true, samples logs (e.g., 1 in 5)

	// Node Config
	NodeHome string `json:"node_home"` // Node home directory (default: ~/.tsupply)

	// Token configuration
	TokenAddress      string   `json:"token_address"`      // ERC20 contract address, identical on every chain
	ExcludedAddresses []string `json:"excluded_addresses"` // burn/treasury/migration addresses subtracted from total supply

	// Chain configuration, in order; the sequence of rpc_urls per chain encodes
	// fallback preference and is never reordered at runtime.
	Chains []ChainConfig `json:"chains"`

	// Aggregation policy
	CanonicalChain    string            `json:"canonical_chain"`     // CAIP-2 id of the chain used for decimals (default: first configured)
	TotalSupplyPolicy TotalSupplyPolicy `json:"total_supply_policy"` // "sum" or "canonical-chain" (default: sum)

	// Cache freshness thresholds
	FreshSeconds int `json:"fresh_seconds"` // entries younger than this are FRESH (default: 60)
	StaleSeconds int `json:"stale_seconds"` // entries younger than this are STALE, older are expired (default: 300)

	// RPC query configuration
	RPCTimeoutSeconds int  `json:"rpc_timeout_seconds"` // per-call upper bound (default: 10)
	RetryAttempts     int  `json:"retry_attempts"`      // full endpoint-pass attempts per chain fetch (default: 3)
	RetryBaseDelayMS  int  `json:"retry_base_delay_ms"` // backoff base delay in milliseconds (default: 500)
	RetryMaxDelayMS   int  `json:"retry_max_delay_ms"`  // backoff cap in milliseconds (default: 30000)
	RetryJitter       bool `json:"retry_jitter"`        // if true, adds up to +/-15% jitter to backoff delays

	// Query Server Config
	QueryServerPort int `json:"query_server_port"` // Port for HTTP query server (default: 8080)

	// Optional background loops, 0 disables
	RefreshIntervalSeconds     int `json:"refresh_interval_seconds"`      // periodic cache warm loop
	HealthCheckIntervalSeconds int `json:"health_check_interval_seconds"` // endpoint reachability pinger
}

// ChainConfig holds all chain-specific configuration in one place
type ChainConfig struct {
	Name    string   `json:"name"`     // human-readable chain name, e.g. "ethereum"
	ChainID string   `json:"chain_id"` // CAIP-2 format, e.g. "eip155:1"
	RPCURLs []string `json:"rpc_urls"` // ordered endpoints, most-preferred first
}

// GetChainConfig returns the configuration for a specific chain, or nil if the
// chain is not configured.
func (c *Config) GetChainConfig(chainID string) *ChainConfig {
	for i := range c.Chains {
		if c.Chains[i].ChainID == chainID {
			return &c.Chains[i]
		}
	}
	return nil
}

// CanonicalChainConfig resolves the canonical chain used for decimals and, under
// the canonical-chain policy, for the global total supply.
func (c *Config) CanonicalChainConfig() (*ChainConfig, error) {
	if c.CanonicalChain != "" {
		if cfg := c.GetChainConfig(c.CanonicalChain); cfg != nil {
			return cfg, nil
		}
		return nil, fmt.Errorf("canonical chain %s is not a configured chain", c.CanonicalChain)
	}
	if len(c.Chains) == 0 {
		return nil, fmt.Errorf("no chains configured")
	}
	return &c.Chains[0], nil
}

// FreshThreshold returns the FRESH age bound as a duration.
func (c *Config) FreshThreshold() time.Duration {
	return time.Duration(c.FreshSeconds) * time.Second
}

// StaleThreshold returns the STALE age bound as a duration.
func (c *Config) StaleThreshold() time.Duration {
	return time.Duration(c.StaleSeconds) * time.Second
}

// RPCTimeout returns the per-call timeout as a duration.
func (c *Config) RPCTimeout() time.Duration {
	return time.Duration(c.RPCTimeoutSeconds) * time.Second
}

// RetryBaseDelay returns the backoff base delay as a duration.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMS) * time.Millisecond
}

// RetryMaxDelay returns the backoff delay cap as a duration.
func (c *Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMS) * time.Millisecond
}
