package rpcpool

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	uerrors "github.com/Figu3/trevee-supply-api/errors"
	"github.com/Figu3/trevee-supply-api/metrics"
)

// unhealthyThreshold is the consecutive-failure count after which an endpoint
// is labeled unreachable. Labels are observability only.
const unhealthyThreshold = 3

// Pool manages one chain's RPC endpoints. Calls walk the endpoint list in
// configured preference order and return on the first success; the order is
// never changed by health state, so a recovering primary is always tried first.
type Pool struct {
	chainID        string
	endpoints      []*Endpoint
	requestTimeout time.Duration
	clientFactory  ClientFactory
	logger         zerolog.Logger
	HealthMonitor  *HealthMonitor
	wg             sync.WaitGroup
	dialMu         sync.Mutex
}

// NewPool creates an RPC pool for one chain. urls must be in preference order.
func NewPool(
	chainID string,
	urls []string,
	requestTimeout time.Duration,
	clientFactory ClientFactory,
	logger zerolog.Logger,
) *Pool {
	if len(urls) == 0 {
		logger.Warn().Str("chain_id", chainID).Msg("no RPC URLs provided for pool")
		return nil
	}

	endpoints := make([]*Endpoint, len(urls))
	for i, url := range urls {
		endpoints[i] = NewEndpoint(url)
	}

	return &Pool{
		chainID:        chainID,
		endpoints:      endpoints,
		requestTimeout: requestTimeout,
		clientFactory:  clientFactory,
		logger:         logger.With().Str("component", "rpc_pool").Str("chain_id", chainID).Logger(),
	}
}

// ChainID returns the CAIP-2 identifier of the pool's chain.
func (p *Pool) ChainID() string {
	return p.chainID
}

// Start dials all endpoints up front (failures are tolerated; dials retry
// lazily on use) and starts health monitoring when configured.
func (p *Pool) Start(ctx context.Context, healthCheckInterval time.Duration, checker HealthChecker) {
	p.logger.Info().
		Int("endpoint_count", len(p.endpoints)).
		Msg("starting RPC pool")

	for _, endpoint := range p.endpoints {
		if _, err := p.getClient(endpoint); err != nil {
			p.logger.Warn().
				Str("url", endpoint.URL).
				Err(err).
				Msg("failed to initialize endpoint, will retry on use")
			endpoint.UpdateState(StateUnreachable)
		}
	}

	if healthCheckInterval > 0 {
		p.HealthMonitor = NewHealthMonitor(p, healthCheckInterval, p.requestTimeout, p.logger)
		p.HealthMonitor.SetHealthChecker(checker)
		p.wg.Add(1)
		go p.HealthMonitor.Start(ctx, &p.wg)
	}
}

// Stop stops health monitoring and closes all client connections.
func (p *Pool) Stop() {
	if p.HealthMonitor != nil {
		p.HealthMonitor.Stop()
	}
	p.wg.Wait()

	for _, endpoint := range p.endpoints {
		if client := endpoint.GetClient(); client != nil {
			if err := client.Close(); err != nil {
				p.logger.Warn().
					Str("url", endpoint.URL).
					Err(err).
					Msg("failed to close client connection")
			}
		}
	}

	p.logger.Info().Msg("RPC pool stopped")
}

// Execute runs fn against each endpoint in preference order until one succeeds.
// Each endpoint attempt carries the pool's request timeout. When every endpoint
// fails, the pass is reported as an AllEndpointsFailedError wrapping the last
// endpoint's failure; retrying the whole pass is the caller's concern.
func (p *Pool) Execute(ctx context.Context, op string, fn func(ctx context.Context, client Client) error) error {
	var lastErr error

	for _, endpoint := range p.endpoints {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		endpoint.MarkUsed()

		client, err := p.getClient(endpoint)
		if err != nil {
			lastErr = p.recordFailure(endpoint, op, err, 0)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
		start := time.Now()
		err = fn(callCtx, client)
		latency := time.Since(start)
		cancel()

		if err != nil {
			lastErr = p.recordFailure(endpoint, op, err, latency)
			continue
		}

		p.recordSuccess(endpoint, op, latency)
		return nil
	}

	return uerrors.NewAllEndpointsFailedError(p.chainID, op, len(p.endpoints), lastErr)
}

// getClient returns the endpoint's client, dialing it on first use.
func (p *Pool) getClient(endpoint *Endpoint) (Client, error) {
	if client := endpoint.GetClient(); client != nil {
		return client, nil
	}

	p.dialMu.Lock()
	defer p.dialMu.Unlock()

	// Another caller may have dialed while we waited
	if client := endpoint.GetClient(); client != nil {
		return client, nil
	}

	client, err := p.clientFactory(endpoint.URL)
	if err != nil {
		return nil, err
	}
	endpoint.SetClient(client)
	return client, nil
}

// recordSuccess updates endpoint metrics after a successful call.
func (p *Pool) recordSuccess(endpoint *Endpoint, op string, latency time.Duration) {
	endpoint.Metrics.UpdateSuccess(latency)
	metrics.RecordEndpointRequest(p.chainID, endpoint.URL, true)
	p.applyStateTransition(endpoint, true, nil)

	p.logger.Debug().
		Str("url", endpoint.URL).
		Str("op", op).
		Dur("latency", latency).
		Msg("endpoint call succeeded")
}

// recordFailure updates endpoint metrics after a failed call and returns the
// wrapped EndpointError for the pass's error chain.
func (p *Pool) recordFailure(endpoint *Endpoint, op string, err error, latency time.Duration) error {
	epErr := uerrors.NewEndpointError(p.chainID, endpoint.URL, op, err)
	endpoint.Metrics.UpdateFailure(epErr, latency)
	metrics.RecordEndpointRequest(p.chainID, endpoint.URL, false)
	p.applyStateTransition(endpoint, false, err)

	p.logger.Debug().
		Str("url", endpoint.URL).
		Str("op", op).
		Err(err).
		Msg("endpoint call failed, trying next")

	return epErr
}

// UpdateEndpointHealth records a health-check result. Used by the health
// monitor; does not count toward endpoint request metrics.
func (p *Pool) UpdateEndpointHealth(endpoint *Endpoint, success bool, latency time.Duration, err error) {
	if success {
		endpoint.Metrics.UpdateSuccess(latency)
	} else {
		endpoint.Metrics.UpdateFailure(err, latency)
	}
	p.applyStateTransition(endpoint, success, err)
}

// applyStateTransition relabels the endpoint based on its recent results.
// Purely observational; call order through the pool never changes.
func (p *Pool) applyStateTransition(endpoint *Endpoint, success bool, err error) {
	if success {
		if endpoint.GetState() != StateHealthy && endpoint.Metrics.GetSuccessRate() > 0.8 {
			endpoint.UpdateState(StateHealthy)
			p.logger.Info().
				Str("url", endpoint.URL).
				Float64("success_rate", endpoint.Metrics.GetSuccessRate()).
				Msg("endpoint recovered")
		}
		return
	}

	if endpoint.Metrics.GetConsecutiveFailures() >= unhealthyThreshold {
		if endpoint.GetState() != StateUnreachable {
			endpoint.UpdateState(StateUnreachable)
			p.logger.Warn().
				Str("url", endpoint.URL).
				Int("consecutive_failures", endpoint.Metrics.GetConsecutiveFailures()).
				Err(err).
				Msg("endpoint marked unreachable")
		}
	} else if endpoint.Metrics.GetSuccessRate() < 0.5 && endpoint.GetState() == StateHealthy {
		endpoint.UpdateState(StateDegraded)
		p.logger.Warn().
			Str("url", endpoint.URL).
			Float64("success_rate", endpoint.Metrics.GetSuccessRate()).
			Msg("endpoint degraded")
	}
}

// GetEndpoints returns a copy of the endpoint slice (for monitoring access).
func (p *Pool) GetEndpoints() []*Endpoint {
	endpoints := make([]*Endpoint, len(p.endpoints))
	copy(endpoints, p.endpoints)
	return endpoints
}

// HealthStatus summarizes endpoint health for the /health endpoint.
func (p *Pool) HealthStatus() *HealthStatus {
	healthyCount := 0
	degradedCount := 0
	unreachableCount := 0

	endpointStatuses := make([]EndpointStatus, len(p.endpoints))
	for i, endpoint := range p.endpoints {
		state := endpoint.GetState()
		switch state {
		case StateHealthy:
			healthyCount++
		case StateDegraded:
			degradedCount++
		case StateUnreachable:
			unreachableCount++
		}

		var lastError string
		if err := endpoint.Metrics.GetLastError(); err != nil {
			lastError = err.Error()
		}

		total, failed := endpoint.Metrics.GetRequestCounts()
		endpointStatuses[i] = EndpointStatus{
			URL:            endpoint.URL,
			State:          state.String(),
			RequestCount:   total,
			FailureCount:   failed,
			AverageLatency: endpoint.Metrics.GetAverageLatency().Milliseconds(),
			LastUsed:       endpoint.GetLastUsed(),
			LastError:      lastError,
		}
	}

	return &HealthStatus{
		ChainID:          p.chainID,
		TotalEndpoints:   len(p.endpoints),
		HealthyCount:     healthyCount,
		DegradedCount:    degradedCount,
		UnreachableCount: unreachableCount,
		Endpoints:        endpointStatuses,
	}
}
