package rpcpool

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HealthMonitor periodically probes every endpoint in a pool and updates its
// metrics and state labels. It exists for observability (logs, /health); the
// pool's call order ignores it.
type HealthMonitor struct {
	pool          *Pool
	interval      time.Duration
	checkTimeout  time.Duration
	logger        zerolog.Logger
	healthChecker HealthChecker
	stopCh        chan struct{}
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(pool *Pool, interval, checkTimeout time.Duration, logger zerolog.Logger) *HealthMonitor {
	return &HealthMonitor{
		pool:         pool,
		interval:     interval,
		checkTimeout: checkTimeout,
		logger:       logger.With().Str("component", "health_monitor").Logger(),
		stopCh:       make(chan struct{}),
	}
}

// SetHealthChecker sets the health checker implementation
func (h *HealthMonitor) SetHealthChecker(checker HealthChecker) {
	h.healthChecker = checker
}

// Start begins the health monitoring loop
func (h *HealthMonitor) Start(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	h.logger.Info().
		Dur("interval", h.interval).
		Msg("starting health monitor")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	// Immediate health check
	h.performHealthChecks(ctx)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Msg("health monitor stopping: context cancelled")
			return
		case <-h.stopCh:
			h.logger.Info().Msg("health monitor stopping: stop signal received")
			return
		case <-ticker.C:
			h.performHealthChecks(ctx)
		}
	}
}

// Stop stops the health monitor
func (h *HealthMonitor) Stop() {
	close(h.stopCh)
}

// performHealthChecks checks the health of all endpoints
func (h *HealthMonitor) performHealthChecks(ctx context.Context) {
	h.logger.Debug().Msg("performing health checks on all endpoints")

	endpoints := h.pool.GetEndpoints()

	var wg sync.WaitGroup
	for _, endpoint := range endpoints {
		wg.Add(1)
		go func(ep *Endpoint) {
			defer wg.Done()
			h.checkEndpointHealth(ctx, ep)
		}(endpoint)
	}

	wg.Wait()
	h.logger.Debug().Msg("health checks completed")
}

// checkEndpointHealth performs a health check on a single endpoint
func (h *HealthMonitor) checkEndpointHealth(ctx context.Context, endpoint *Endpoint) {
	checkCtx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	client, err := h.pool.getClient(endpoint)
	if err != nil {
		h.pool.UpdateEndpointHealth(endpoint, false, 0, err)
		h.logger.Warn().
			Str("url", endpoint.URL).
			Err(err).
			Msg("endpoint unreachable during health check")
		return
	}

	start := time.Now()
	if h.healthChecker != nil {
		err = h.healthChecker.CheckHealth(checkCtx, client)
	} else {
		err = client.Ping(checkCtx)
	}
	latency := time.Since(start)

	success := err == nil
	h.pool.UpdateEndpointHealth(endpoint, success, latency, err)

	if success {
		h.logger.Debug().
			Str("url", endpoint.URL).
			Dur("latency", latency).
			Msg("endpoint health check passed")
	} else {
		h.logger.Warn().
			Str("url", endpoint.URL).
			Dur("latency", latency).
			Err(err).
			Int("consecutive_failures", endpoint.Metrics.GetConsecutiveFailures()).
			Msg("endpoint health check failed")
	}
}
