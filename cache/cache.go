// Package cache serves supply values through a freshness-tiered cache.
// Reads never fail: some value is always served, tagged with how fresh it is.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Figu3/trevee-supply-api/config"
	"github.com/Figu3/trevee-supply-api/metrics"
	"github.com/Figu3/trevee-supply-api/supply"
)

// Status tags a served value with its freshness tier.
type Status string

const (
	// StatusFresh marks a value younger than the fresh threshold.
	StatusFresh Status = "FRESH"

	// StatusStale marks a value past the fresh threshold but still usable;
	// serving it triggers a background refresh.
	StatusStale Status = "STALE"

	// StatusMiss marks a value fetched synchronously because the cache had
	// nothing usable.
	StatusMiss Status = "MISS"

	// StatusErrorFallback marks a degraded response: the fetch failed and
	// the last known value (or the zero sentinel) is served instead.
	StatusErrorFallback Status = "ERROR-FALLBACK"
)

// Fetcher produces a fresh global supply snapshot. *supply.Aggregator
// implements it.
type Fetcher interface {
	FetchGlobalSupply(ctx context.Context) (*supply.GlobalSupply, error)
}

// cached is one applied snapshot projection. The three outputs always come
// from the same snapshot and age together.
type cached struct {
	circulating string
	total       string
	breakdown   *supply.Breakdown
	updatedAt   time.Time
}

// zeroEntry is the cold-start sentinel served when a fetch fails before any
// snapshot has ever been cached.
func zeroEntry() *cached {
	return &cached{
		circulating: "0",
		total:       "0",
		breakdown:   supply.ZeroBreakdown(),
	}
}

// inflight is a single fetch shared by every caller that needs its outcome.
// result and err are written before done is closed.
type inflight struct {
	done   chan struct{}
	ticket uint64
	result *cached
	err    error
}

// SupplyCache is a freshness-tiered cache over a Fetcher. At most one fetch
// runs at a time: stale reads spawn it in the background, misses block on
// it. Applies are version-stamped so a fetch that started before a newer
// write or a Clear can never overwrite fresher state. Entries are never
// evicted, which keeps the last known value available for degraded serving.
type SupplyCache struct {
	mu      sync.Mutex
	entry   *cached
	version uint64
	call    *inflight

	fetcher Fetcher
	fresh   time.Duration
	stale   time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

// NewSupplyCache creates the cache with freshness thresholds from cfg.
func NewSupplyCache(fetcher Fetcher, cfg *config.Config, logger zerolog.Logger) *SupplyCache {
	return &SupplyCache{
		fetcher: fetcher,
		fresh:   cfg.FreshThreshold(),
		stale:   cfg.StaleThreshold(),
		logger:  logger.With().Str("component", "supply_cache").Logger(),
		now:     time.Now,
	}
}

// GetCirculatingSupply returns the circulating supply as a plain decimal
// string in whole token units.
func (c *SupplyCache) GetCirculatingSupply(ctx context.Context) (string, Status) {
	entry, status := c.lookup(ctx, "circulating")
	return entry.circulating, status
}

// GetTotalSupply returns the total supply as a plain decimal string in whole
// token units.
func (c *SupplyCache) GetTotalSupply(ctx context.Context) (string, Status) {
	entry, status := c.lookup(ctx, "total")
	return entry.total, status
}

// GetDetailedBreakdown returns the full per-chain supply breakdown.
func (c *SupplyCache) GetDetailedBreakdown(ctx context.Context) (*supply.Breakdown, Status) {
	entry, status := c.lookup(ctx, "breakdown")
	return entry.breakdown, status
}

// Refresh fetches a snapshot and waits for it, joining a fetch that is
// already in flight. The periodic warm loop uses it.
func (c *SupplyCache) Refresh(ctx context.Context) error {
	_, err := c.syncFetch(ctx, "warm")
	return err
}

// Clear empties the cache. The next read misses and blocks on a fresh
// fetch; results of fetches already in flight are discarded.
func (c *SupplyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
	c.version++
	c.logger.Info().Msg("cache cleared")
}

// LastUpdated returns when the current entry was applied, or the zero time
// if the cache is empty.
func (c *SupplyCache) LastUpdated() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return time.Time{}
	}
	return c.entry.updatedAt
}

// lookup classifies the cache entry by age and serves accordingly: fresh
// entries directly, stale entries with a background refresh, everything
// else through a blocking fetch with degraded fallback on failure.
func (c *SupplyCache) lookup(ctx context.Context, output string) (*cached, Status) {
	c.mu.Lock()
	if entry := c.entry; entry != nil {
		age := c.now().Sub(entry.updatedAt)
		switch {
		case age < c.fresh:
			c.mu.Unlock()
			metrics.RecordCacheRequest(output, string(StatusFresh))
			return entry, StatusFresh
		case age < c.stale:
			c.maybeRefreshLocked()
			c.mu.Unlock()
			metrics.RecordCacheRequest(output, string(StatusStale))
			return entry, StatusStale
		}
	}
	c.mu.Unlock()

	result, err := c.syncFetch(ctx, "sync")
	if err == nil {
		metrics.RecordCacheRequest(output, string(StatusMiss))
		return result, StatusMiss
	}

	c.logger.Warn().
		Err(err).
		Str("output", output).
		Msg("serving fallback after failed fetch")
	metrics.RecordCacheRequest(output, string(StatusErrorFallback))

	c.mu.Lock()
	entry := c.entry
	c.mu.Unlock()
	if entry != nil {
		return entry, StatusErrorFallback
	}
	return zeroEntry(), StatusErrorFallback
}

// maybeRefreshLocked spawns a background refresh unless a fetch is already
// in flight. Caller must hold mu.
func (c *SupplyCache) maybeRefreshLocked() {
	if c.call != nil {
		return
	}
	call := c.beginFetchLocked()
	go func() {
		snapshot, err := c.fetcher.FetchGlobalSupply(context.Background())
		c.completeFetch(call, "background", snapshot, err)
	}()
}

// syncFetch blocks until a fetch completes, joining one already in flight
// when present. On success it returns the fetched projection directly, so a
// concurrent Clear cannot turn a successful fetch into an empty response.
func (c *SupplyCache) syncFetch(ctx context.Context, trigger string) (*cached, error) {
	c.mu.Lock()
	call := c.call
	if call == nil {
		call = c.beginFetchLocked()
		c.mu.Unlock()
		snapshot, err := c.fetcher.FetchGlobalSupply(ctx)
		c.completeFetch(call, trigger, snapshot, err)
	} else {
		c.mu.Unlock()
	}

	select {
	case <-call.done:
		if call.err != nil {
			return nil, call.err
		}
		return call.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// beginFetchLocked registers a new in-flight fetch stamped with the current
// version. Caller must hold mu and have checked that no fetch is running.
func (c *SupplyCache) beginFetchLocked() *inflight {
	call := &inflight{
		done:   make(chan struct{}),
		ticket: c.version,
	}
	c.call = call
	return call
}

// completeFetch records the fetch outcome, applies it unless a newer write
// landed after the fetch began, and releases every waiter.
func (c *SupplyCache) completeFetch(call *inflight, trigger string, snapshot *supply.GlobalSupply, err error) {
	c.mu.Lock()
	call.err = err
	if err == nil {
		call.result = &cached{
			circulating: snapshot.CirculatingUnits(),
			total:       snapshot.TotalUnits(),
			breakdown:   snapshot.Breakdown(),
			updatedAt:   c.now(),
		}
		if c.version == call.ticket {
			c.entry = call.result
			c.version++
			c.logger.Info().
				Str("trigger", trigger).
				Str("circulating", call.result.circulating).
				Time("updated_at", call.result.updatedAt).
				Msg("cache updated")
		} else {
			c.logger.Debug().
				Str("trigger", trigger).
				Uint64("ticket", call.ticket).
				Uint64("version", c.version).
				Msg("discarding out-of-order fetch result")
		}
	}
	c.call = nil
	c.mu.Unlock()

	close(call.done)
	metrics.RecordCacheRefresh(trigger, err)
}
