// Package supply computes the token's circulating and total supply across
// every configured chain. Amounts are carried as raw base-unit big integers
// end to end; conversion to whole-token decimal strings happens only at the
// display boundary.
package supply

import (
	"context"
	"math/big"
	"time"

	"github.com/Figu3/trevee-supply-api/config"
	"github.com/Figu3/trevee-supply-api/utils"
)

// ChainReader is the read surface the aggregator needs from a chain client.
// *evm.Client implements it.
type ChainReader interface {
	// Name returns the human-readable chain name, e.g. "ethereum".
	Name() string

	// ChainID returns the CAIP-2 chain identifier, e.g. "eip155:1".
	ChainID() string

	// TotalSupply returns the token's total supply in raw base units.
	TotalSupply(ctx context.Context) (*big.Int, error)

	// BalanceOf returns the token balance of address in raw base units.
	BalanceOf(ctx context.Context, address string) (*big.Int, error)

	// Decimals returns the token's decimal places.
	Decimals(ctx context.Context) (uint8, error)
}

// ChainSupply is one chain's supply snapshot in raw base units, produced by
// a single all-or-nothing fetch attempt.
type ChainSupply struct {
	Chain       string
	ChainID     string
	Total       *big.Int
	Excluded    *big.Int
	Circulating *big.Int
}

// GlobalSupply is the joined cross-chain snapshot in raw base units. All
// amounts share the canonical chain's decimals.
type GlobalSupply struct {
	Chains            map[string]*ChainSupply
	Circulating       *big.Int
	Total             *big.Int
	Excluded          *big.Int
	Decimals          uint8
	Policy            config.TotalSupplyPolicy
	ExcludedAddresses []string
	FetchDuration     time.Duration
	Timestamp         time.Time
}

// CirculatingUnits renders the global circulating supply in whole token units.
func (g *GlobalSupply) CirculatingUnits() string {
	return FormatUnits(g.Circulating, g.Decimals)
}

// TotalUnits renders the global total supply in whole token units.
func (g *GlobalSupply) TotalUnits() string {
	return FormatUnits(g.Total, g.Decimals)
}

// Breakdown is the display projection of a GlobalSupply snapshot: every
// amount rendered as a plain decimal string in whole token units.
type Breakdown struct {
	Chains            map[string]BreakdownChain `json:"chains"`
	TotalCirculating  string                    `json:"total_circulating"`
	TotalSupply       string                    `json:"total_supply"`
	TotalExcluded     string                    `json:"total_excluded"`
	TotalSupplyPolicy string                    `json:"total_supply_policy,omitempty"`
	Decimals          uint8                     `json:"decimals"`
	ExcludedAddresses []string                  `json:"excluded_addresses"`
	FetchDuration     string                    `json:"fetch_duration"`
	Timestamp         time.Time                 `json:"timestamp"`
}

// BreakdownChain is one chain's row in a Breakdown.
type BreakdownChain struct {
	ChainID     string `json:"chain_id"`
	Circulating string `json:"circulating"`
	Total       string `json:"total"`
	Excluded    string `json:"excluded"`
}

// Breakdown projects the snapshot into display form.
func (g *GlobalSupply) Breakdown() *Breakdown {
	chains := make(map[string]BreakdownChain, len(g.Chains))
	for name, cs := range g.Chains {
		chains[name] = BreakdownChain{
			ChainID:     cs.ChainID,
			Circulating: FormatUnits(cs.Circulating, g.Decimals),
			Total:       FormatUnits(cs.Total, g.Decimals),
			Excluded:    FormatUnits(cs.Excluded, g.Decimals),
		}
	}
	return &Breakdown{
		Chains:            chains,
		TotalCirculating:  FormatUnits(g.Circulating, g.Decimals),
		TotalSupply:       FormatUnits(g.Total, g.Decimals),
		TotalExcluded:     FormatUnits(g.Excluded, g.Decimals),
		TotalSupplyPolicy: string(g.Policy),
		Decimals:          g.Decimals,
		ExcludedAddresses: g.ExcludedAddresses,
		FetchDuration:     utils.FormatDuration(g.FetchDuration),
		Timestamp:         g.Timestamp,
	}
}

// ZeroBreakdown is the cold-start sentinel served when no snapshot has ever
// been computed successfully.
func ZeroBreakdown() *Breakdown {
	return &Breakdown{
		Chains:           map[string]BreakdownChain{},
		TotalCirculating: "0",
		TotalSupply:      "0",
		TotalExcluded:    "0",
	}
}
