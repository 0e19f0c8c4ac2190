package supply

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Figu3/trevee-supply-api/chains/common"
	"github.com/Figu3/trevee-supply-api/config"
	uerrors "github.com/Figu3/trevee-supply-api/errors"
	"github.com/Figu3/trevee-supply-api/metrics"
)

// Aggregator computes per-chain and global supply snapshots. Every chain
// fetch is all-or-nothing: total supply and all excluded balances must
// succeed within one attempt or the whole attempt is retried as a unit.
type Aggregator struct {
	logger    zerolog.Logger
	chains    []ChainReader
	canonical ChainReader
	excluded  []string
	policy    config.TotalSupplyPolicy
	retry     *common.RetryManager
	attempts  int
}

// NewAggregator creates a cross-chain supply aggregator. canonical is the
// chain queried for token decimals (and, under the canonical-chain policy,
// for the global total supply); it must be one of chains.
func NewAggregator(
	chains []ChainReader,
	canonical ChainReader,
	cfg *config.Config,
	logger zerolog.Logger,
) (*Aggregator, error) {
	if len(chains) == 0 {
		return nil, fmt.Errorf("no chains to aggregate")
	}
	if canonical == nil {
		return nil, fmt.Errorf("canonical chain is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	member := false
	for _, chain := range chains {
		if chain.Name() == canonical.Name() {
			member = true
			break
		}
	}
	if !member {
		return nil, fmt.Errorf("canonical chain %s is not among the aggregated chains", canonical.Name())
	}

	retryConfig := &common.RetryConfig{
		MaxAttempts: cfg.RetryAttempts,
		BaseDelay:   cfg.RetryBaseDelay(),
		MaxDelay:    cfg.RetryMaxDelay(),
		Jitter:      cfg.RetryJitter,
	}
	if retryConfig.MaxAttempts < 1 {
		retryConfig.MaxAttempts = 1
	}

	policy := cfg.TotalSupplyPolicy
	if policy == "" {
		policy = config.TotalSupplyPolicySum
	}

	log := logger.With().Str("component", "supply_aggregator").Logger()

	return &Aggregator{
		logger:    log,
		chains:    chains,
		canonical: canonical,
		excluded:  normalizeAddresses(cfg.ExcludedAddresses),
		policy:    policy,
		retry:     common.NewRetryManager(retryConfig, log),
		attempts:  retryConfig.MaxAttempts,
	}, nil
}

// normalizeAddresses lower-cases and de-duplicates the exclusion list so the
// same account configured twice in different casings is queried and
// subtracted once. First-occurrence order is preserved.
func normalizeAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	normalized := make([]string, 0, len(addresses))
	for _, address := range addresses {
		a := strings.ToLower(strings.TrimSpace(address))
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		normalized = append(normalized, a)
	}
	return normalized
}

// FetchChainSupply fetches one chain's supply snapshot, retrying the whole
// fetch (total supply plus every excluded balance) as a unit until it
// succeeds or the attempt budget is exhausted.
func (a *Aggregator) FetchChainSupply(ctx context.Context, chain ChainReader) (*ChainSupply, error) {
	var result *ChainSupply
	operation := fmt.Sprintf("supply_fetch:%s", chain.Name())
	err := a.retry.ExecuteWithRetry(ctx, operation, func() error {
		snapshot, err := a.fetchChainSupplyOnce(ctx, chain)
		if err != nil {
			return err
		}
		result = snapshot
		return nil
	})
	if err != nil {
		metrics.ChainFetchFailures.WithLabelValues(chain.Name()).Inc()
		return nil, uerrors.NewChainFetchError(chain.Name(), a.attempts, err)
	}
	return result, nil
}

// fetchChainSupplyOnce performs a single fetch attempt against one chain.
func (a *Aggregator) fetchChainSupplyOnce(ctx context.Context, chain ChainReader) (*ChainSupply, error) {
	total, err := chain.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}

	excluded, err := a.fetchExcludedBalances(ctx, chain)
	if err != nil {
		return nil, err
	}

	circulating := new(big.Int).Sub(total, excluded)
	if circulating.Sign() < 0 {
		a.logger.Warn().
			Str("chain", chain.Name()).
			Str("total", total.String()).
			Str("excluded", excluded.String()).
			Msg("excluded balances exceed total supply, clamping circulating to zero")
		circulating.SetInt64(0)
	}

	return &ChainSupply{
		Chain:       chain.Name(),
		ChainID:     chain.ChainID(),
		Total:       total,
		Excluded:    excluded,
		Circulating: circulating,
	}, nil
}

type balanceResult struct {
	address string
	balance *big.Int
	err     error
}

// fetchExcludedBalances queries every excluded address concurrently and sums
// the balances. Any single failure fails the whole attempt.
func (a *Aggregator) fetchExcludedBalances(ctx context.Context, chain ChainReader) (*big.Int, error) {
	sum := new(big.Int)
	if len(a.excluded) == 0 {
		return sum, nil
	}

	results := make(chan balanceResult, len(a.excluded))
	var wg sync.WaitGroup
	for _, address := range a.excluded {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			balance, err := chain.BalanceOf(ctx, addr)
			results <- balanceResult{address: addr, balance: balance, err: err}
		}(address)
	}
	wg.Wait()
	close(results)

	for res := range results {
		if res.err != nil {
			return nil, fmt.Errorf("balance of %s: %w", res.address, res.err)
		}
		sum.Add(sum, res.balance)
	}
	return sum, nil
}

type chainResult struct {
	name     string
	snapshot *ChainSupply
	err      error
}

type decimalsResult struct {
	decimals uint8
	err      error
}

// FetchGlobalSupply queries every configured chain concurrently, joins the
// results, and returns a single global snapshot. The fetch fails if any
// chain fails; partial results are never returned.
func (a *Aggregator) FetchGlobalSupply(ctx context.Context) (*GlobalSupply, error) {
	start := time.Now()

	results := make(chan chainResult, len(a.chains))
	decimalsCh := make(chan decimalsResult, 1)

	var wg sync.WaitGroup
	for _, chain := range a.chains {
		wg.Add(1)
		go func(c ChainReader) {
			defer wg.Done()
			snapshot, err := a.FetchChainSupply(ctx, c)
			results <- chainResult{name: c.Name(), snapshot: snapshot, err: err}
		}(chain)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		decimals, err := a.fetchDecimals(ctx)
		decimalsCh <- decimalsResult{decimals: decimals, err: err}
	}()

	wg.Wait()
	close(results)

	snapshots := make(map[string]*ChainSupply, len(a.chains))
	failures := make(map[string]error)
	for res := range results {
		if res.err != nil {
			failures[res.name] = res.err
			continue
		}
		snapshots[res.name] = res.snapshot
	}
	// Surface failures in configured chain order so the reported error is
	// deterministic when several chains fail in the same pass.
	if len(failures) > 0 {
		for _, chain := range a.chains {
			if err, failed := failures[chain.Name()]; failed {
				return nil, err
			}
		}
	}

	dec := <-decimalsCh
	if dec.err != nil {
		return nil, dec.err
	}

	circulating := new(big.Int)
	excluded := new(big.Int)
	for _, snapshot := range snapshots {
		circulating.Add(circulating, snapshot.Circulating)
		excluded.Add(excluded, snapshot.Excluded)
	}

	total := new(big.Int)
	switch a.policy {
	case config.TotalSupplyPolicyCanonical:
		canonical, ok := snapshots[a.canonical.Name()]
		if !ok {
			return nil, fmt.Errorf("canonical chain %s has no snapshot", a.canonical.Name())
		}
		total.Set(canonical.Total)
	default:
		for _, snapshot := range snapshots {
			total.Add(total, snapshot.Total)
		}
	}

	elapsed := time.Since(start)
	metrics.FetchDuration.Observe(elapsed.Seconds())
	metrics.CirculatingSupply.Set(decimal.NewFromBigInt(circulating, -int32(dec.decimals)).InexactFloat64())

	a.logger.Info().
		Str("circulating", circulating.String()).
		Str("total", total.String()).
		Int("chains", len(snapshots)).
		Dur("duration", elapsed).
		Msg("global supply aggregated")

	return &GlobalSupply{
		Chains:            snapshots,
		Circulating:       circulating,
		Total:             total,
		Excluded:          excluded,
		Decimals:          dec.decimals,
		Policy:            a.policy,
		ExcludedAddresses: a.excluded,
		FetchDuration:     elapsed,
		Timestamp:         time.Now().UTC(),
	}, nil
}

// fetchDecimals reads the token decimals from the canonical chain with the
// same retry discipline as a supply fetch.
func (a *Aggregator) fetchDecimals(ctx context.Context) (uint8, error) {
	var decimals uint8
	operation := fmt.Sprintf("decimals_fetch:%s", a.canonical.Name())
	err := a.retry.ExecuteWithRetry(ctx, operation, func() error {
		d, err := a.canonical.Decimals(ctx)
		if err != nil {
			return err
		}
		decimals = d
		return nil
	})
	if err != nil {
		return 0, uerrors.NewDecimalsFetchError(a.canonical.Name(), err)
	}
	return decimals, nil
}
