// Package core wires the chain clients, aggregator, cache and API server
// into one long-running service.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Figu3/trevee-supply-api/api"
	"github.com/Figu3/trevee-supply-api/cache"
	"github.com/Figu3/trevee-supply-api/chains/evm"
	"github.com/Figu3/trevee-supply-api/config"
	"github.com/Figu3/trevee-supply-api/supply"
)

// Service is the top-level supply service.
type Service struct {
	ctx       context.Context
	log       zerolog.Logger
	cfg       *config.Config
	chains    []*evm.Client
	cache     *cache.SupplyCache
	apiServer *api.Server
	refresher *Refresher
}

// NewService builds the full service from configuration: one EVM client per
// configured chain, the cross-chain aggregator, the tiered cache and the
// HTTP API on top of it.
func NewService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	canonicalCfg, err := cfg.CanonicalChainConfig()
	if err != nil {
		return nil, err
	}

	chains := make([]*evm.Client, 0, len(cfg.Chains))
	readers := make([]supply.ChainReader, 0, len(cfg.Chains))
	reporters := make([]api.HealthReporter, 0, len(cfg.Chains))
	var canonical supply.ChainReader
	for i := range cfg.Chains {
		chainCfg := &cfg.Chains[i]
		client, err := evm.NewClient(chainCfg, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create client for chain %s: %w", chainCfg.ChainID, err)
		}
		chains = append(chains, client)
		readers = append(readers, client)
		reporters = append(reporters, client)
		if chainCfg.ChainID == canonicalCfg.ChainID {
			canonical = client
		}
	}

	aggregator, err := supply.NewAggregator(readers, canonical, cfg, log)
	if err != nil {
		return nil, err
	}

	supplyCache := cache.NewSupplyCache(aggregator, cfg, log)

	s := &Service{
		ctx:       ctx,
		log:       log,
		cfg:       cfg,
		chains:    chains,
		cache:     supplyCache,
		apiServer: api.NewServer(supplyCache, reporters, cfg.QueryServerPort, log),
	}

	if cfg.RefreshIntervalSeconds > 0 {
		interval := time.Duration(cfg.RefreshIntervalSeconds) * time.Second
		s.refresher = NewRefresher(supplyCache, interval, log)
	}

	return s, nil
}

// Start brings every component up and blocks until the service context is
// cancelled.
func (s *Service) Start() error {
	s.log.Info().Msg("🚀 Starting supply service...")

	for _, chain := range s.chains {
		chain.Start(s.ctx)
	}

	// Prime the cache so the first request is served warm. A failure here is
	// not fatal: the cache degrades to its zero sentinel until chains recover.
	warmCtx, cancel := context.WithTimeout(s.ctx, s.cfg.RPCTimeout()*3)
	if err := s.cache.Refresh(warmCtx); err != nil {
		s.log.Warn().Err(err).Msg("initial cache warm-up failed")
	}
	cancel()

	if s.refresher != nil {
		s.refresher.Start(s.ctx)
	}

	if err := s.apiServer.Start(); err != nil {
		s.shutdown()
		return fmt.Errorf("failed to start API server: %w", err)
	}

	s.log.Info().
		Int("chains", len(s.chains)).
		Int("port", s.cfg.QueryServerPort).
		Msg("✅ Initialization complete. Serving supply API...")

	<-s.ctx.Done()

	s.log.Info().Msg("🛑 Shutting down supply service...")
	return s.shutdown()
}

// shutdown stops every component in reverse start order.
func (s *Service) shutdown() error {
	err := s.apiServer.Stop()
	if s.refresher != nil {
		s.refresher.Stop()
	}
	for _, chain := range s.chains {
		chain.Stop()
	}
	return err
}
