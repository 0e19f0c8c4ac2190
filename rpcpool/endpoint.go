package rpcpool

import (
	"sync"
	"time"
)

// EndpointState classifies an endpoint for observability. State never affects
// call order: the pool always walks endpoints in configured preference order.
type EndpointState int

const (
	StateHealthy EndpointState = iota
	StateDegraded
	StateUnreachable
)

func (s EndpointState) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// EndpointMetrics tracks performance and health metrics for an endpoint
type EndpointMetrics struct {
	mu                  sync.RWMutex
	TotalRequests       uint64
	SuccessfulRequests  uint64
	FailedRequests      uint64
	AverageLatency      time.Duration
	ConsecutiveFailures int
	LastSuccessTime     time.Time
	LastErrorTime       time.Time
	LastError           error
}

// UpdateSuccess updates metrics for a successful request
func (m *EndpointMetrics) UpdateSuccess(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.SuccessfulRequests++
	m.ConsecutiveFailures = 0
	m.LastSuccessTime = time.Now()

	// Exponential moving average with alpha = 0.1
	if m.AverageLatency == 0 {
		m.AverageLatency = latency
	} else {
		m.AverageLatency = time.Duration(float64(m.AverageLatency)*0.9 + float64(latency)*0.1)
	}
}

// UpdateFailure updates metrics for a failed request
func (m *EndpointMetrics) UpdateFailure(err error, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.FailedRequests++
	m.ConsecutiveFailures++
	m.LastErrorTime = time.Now()
	m.LastError = err

	// Update latency even for failures (for timeout tracking)
	if latency > 0 && m.AverageLatency > 0 {
		m.AverageLatency = time.Duration(float64(m.AverageLatency)*0.9 + float64(latency)*0.1)
	}
}

// GetSuccessRate returns the success rate (thread-safe)
func (m *EndpointMetrics) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.TotalRequests == 0 {
		return 1.0
	}
	return float64(m.SuccessfulRequests) / float64(m.TotalRequests)
}

// GetConsecutiveFailures returns consecutive failure count (thread-safe)
func (m *EndpointMetrics) GetConsecutiveFailures() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConsecutiveFailures
}

// GetAverageLatency returns the EMA latency (thread-safe)
func (m *EndpointMetrics) GetAverageLatency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.AverageLatency
}

// GetRequestCounts returns total and failed request counts (thread-safe)
func (m *EndpointMetrics) GetRequestCounts() (total, failed uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.TotalRequests, m.FailedRequests
}

// GetLastError returns the most recent error (thread-safe)
func (m *EndpointMetrics) GetLastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastError
}

// Endpoint represents a single RPC endpoint with its client and metrics
type Endpoint struct {
	URL      string
	Client   Client // dialed lazily on first use
	State    EndpointState
	Metrics  *EndpointMetrics
	LastUsed time.Time
	mu       sync.RWMutex
}

// NewEndpoint creates a new RPC endpoint
func NewEndpoint(url string) *Endpoint {
	return &Endpoint{
		URL:     url,
		State:   StateHealthy,
		Metrics: &EndpointMetrics{},
	}
}

// SetClient sets the RPC client for this endpoint
func (e *Endpoint) SetClient(client Client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Client = client
}

// GetClient returns the RPC client (thread-safe)
func (e *Endpoint) GetClient() Client {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Client
}

// UpdateState updates the endpoint state (thread-safe)
func (e *Endpoint) UpdateState(state EndpointState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.State = state
}

// GetState returns the current state (thread-safe)
func (e *Endpoint) GetState() EndpointState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.State
}

// MarkUsed records that the endpoint served (or attempted) a request
func (e *Endpoint) MarkUsed() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.LastUsed = time.Now()
}

// GetLastUsed returns when the endpoint last served a request (thread-safe)
func (e *Endpoint) GetLastUsed() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.LastUsed
}
