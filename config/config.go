package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

const (
	configSubdir   = "config"
	configFileName = "tsupply_config.json"
)

//go:embed default_config.json
var defaultConfigJSON []byte

func validateConfig(cfg *Config) error {
	// Validate log level
	if cfg.LogLevel < 0 || cfg.LogLevel > 5 {
		return fmt.Errorf("log level must be between 0 and 5")
	}

	// Validate log format
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("log format must be 'json' or 'console'")
	}

	// Validate token address
	if cfg.TokenAddress == "" {
		return fmt.Errorf("token address is required")
	}
	if !ethcommon.IsHexAddress(cfg.TokenAddress) {
		return fmt.Errorf("token address %q is not a valid hex address", cfg.TokenAddress)
	}
	cfg.TokenAddress = strings.ToLower(cfg.TokenAddress)

	// Normalize and deduplicate the excluded address set. Case-folding before
	// deduplication prevents the same address counting twice under mixed casing,
	// which would double-subtract its balance.
	seen := make(map[string]bool, len(cfg.ExcludedAddresses))
	normalized := make([]string, 0, len(cfg.ExcludedAddresses))
	for _, addr := range cfg.ExcludedAddresses {
		if !ethcommon.IsHexAddress(addr) {
			return fmt.Errorf("excluded address %q is not a valid hex address", addr)
		}
		lower := strings.ToLower(addr)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		normalized = append(normalized, lower)
	}
	cfg.ExcludedAddresses = normalized

	// Validate chains
	if len(cfg.Chains) == 0 {
		return fmt.Errorf("at least one chain must be configured")
	}
	chainIDs := make(map[string]bool, len(cfg.Chains))
	for i := range cfg.Chains {
		chain := &cfg.Chains[i]
		if chain.Name == "" {
			return fmt.Errorf("chain at index %d has no name", i)
		}
		if chain.ChainID == "" {
			return fmt.Errorf("chain %s has no chain_id", chain.Name)
		}
		if chainIDs[chain.ChainID] {
			return fmt.Errorf("chain %s is configured twice", chain.ChainID)
		}
		chainIDs[chain.ChainID] = true
		if len(chain.RPCURLs) == 0 {
			return fmt.Errorf("chain %s has no rpc_urls", chain.Name)
		}
	}

	// Resolve aggregation policy
	if cfg.TotalSupplyPolicy == "" {
		cfg.TotalSupplyPolicy = TotalSupplyPolicySum
	}
	if cfg.TotalSupplyPolicy != TotalSupplyPolicySum && cfg.TotalSupplyPolicy != TotalSupplyPolicyCanonical {
		return fmt.Errorf("total supply policy must be 'sum' or 'canonical-chain'")
	}
	if cfg.CanonicalChain != "" && !chainIDs[cfg.CanonicalChain] {
		return fmt.Errorf("canonical chain %s is not a configured chain", cfg.CanonicalChain)
	}
	if cfg.CanonicalChain == "" {
		cfg.CanonicalChain = cfg.Chains[0].ChainID
	}

	// Set defaults for cache freshness thresholds
	if cfg.FreshSeconds == 0 {
		cfg.FreshSeconds = 60
	}
	if cfg.StaleSeconds == 0 {
		cfg.StaleSeconds = 300
	}
	if cfg.StaleSeconds <= cfg.FreshSeconds {
		return fmt.Errorf("stale_seconds (%d) must be greater than fresh_seconds (%d)", cfg.StaleSeconds, cfg.FreshSeconds)
	}

	// Set defaults for RPC query config
	if cfg.RPCTimeoutSeconds == 0 {
		cfg.RPCTimeoutSeconds = 10
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBaseDelayMS == 0 {
		cfg.RetryBaseDelayMS = 500
	}
	if cfg.RetryMaxDelayMS == 0 {
		cfg.RetryMaxDelayMS = 30000
	}

	// Set defaults for query server
	if cfg.QueryServerPort == 0 {
		cfg.QueryServerPort = 8080
	}

	return nil
}

// applyEnvOverrides merges TSUPPLY_* environment variables over the file
// config. Runs before validation, so overridden values are checked the same
// way file values are. Values from a .env file count when the process loads
// one at startup.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TSUPPLY_TOKEN_ADDRESS"); v != "" {
		cfg.TokenAddress = v
	}
	if v := os.Getenv("TSUPPLY_CANONICAL_CHAIN"); v != "" {
		cfg.CanonicalChain = v
	}
	if v := os.Getenv("TSUPPLY_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TSUPPLY_LOG_LEVEL"); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TSUPPLY_LOG_LEVEL %q is not an integer: %w", v, err)
		}
		cfg.LogLevel = level
	}
	if v := os.Getenv("TSUPPLY_QUERY_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TSUPPLY_QUERY_SERVER_PORT %q is not an integer: %w", v, err)
		}
		cfg.QueryServerPort = port
	}
	return nil
}

// Save writes the given config to <basePath>/config/tsupply_config.json.
func Save(cfg *Config, basePath string) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	configDir := filepath.Join(basePath, configSubdir)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configDir, configFileName)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load reads, validates, and returns the config from
// <basePath>/config/tsupply_config.json.
func Load(basePath string) (Config, error) {
	configFile := filepath.Join(basePath, configSubdir, configFileName)
	data, err := os.ReadFile(filepath.Clean(configFile))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := validateConfig(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDefaultConfig loads the default configuration from embedded JSON
func LoadDefaultConfig() (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(defaultConfigJSON, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid default config: %w", err)
	}
	return &cfg, nil
}
