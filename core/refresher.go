package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RefreshTarget is the cache surface the warm loop drives.
type RefreshTarget interface {
	Refresh(ctx context.Context) error
}

// Refresher keeps the supply cache warm by refreshing it on a fixed period,
// so readers keep hitting the fresh tier instead of paying for fetches.
type Refresher struct {
	cache    RefreshTarget
	interval time.Duration
	ticker   *time.Ticker
	logger   zerolog.Logger
	stopCh   chan struct{}
}

// NewRefresher creates a new cache refresher.
func NewRefresher(cache RefreshTarget, interval time.Duration, logger zerolog.Logger) *Refresher {
	return &Refresher{
		cache:    cache,
		interval: interval,
		logger:   logger.With().Str("component", "cache_refresher").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic refresh loop.
func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info().
		Dur("interval", r.interval).
		Msg("starting cache refresher")

	r.ticker = time.NewTicker(r.interval)
	go r.run(ctx)
}

// Stop halts the refresh loop.
func (r *Refresher) Stop() {
	r.logger.Info().Msg("stopping cache refresher")

	if r.ticker != nil {
		r.ticker.Stop()
	}
	close(r.stopCh)
}

// run drives the periodic refreshes until stopped.
func (r *Refresher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("context cancelled, stopping refresh loop")
			return
		case <-r.stopCh:
			r.logger.Info().Msg("stop signal received, stopping refresh loop")
			return
		case <-r.ticker.C:
			r.logger.Debug().Msg("refresh ticker fired")
			if err := r.cache.Refresh(ctx); err != nil {
				r.logger.Error().
					Err(err).
					Msg("periodic cache refresh failed")
			}
		}
	}
}
