package errors

import (
	"fmt"
)

// EndpointError represents a failure of a single RPC endpoint during one call.
// It is recovered locally by endpoint fallback and never escapes the pool layer;
// it exists so per-endpoint failures can be logged and counted with full context.
type EndpointError struct {
	Chain string `json:"chain"`
	URL   string `json:"url"`
	Op    string `json:"op"`
	Cause error  `json:"-"`
}

// NewEndpointError creates a new EndpointError
func NewEndpointError(chain, url, op string, cause error) *EndpointError {
	return &EndpointError{
		Chain: chain,
		URL:   url,
		Op:    op,
		Cause: cause,
	}
}

// Error implements the error interface
func (e *EndpointError) Error() string {
	return fmt.Sprintf("[%s] endpoint %s failed during %s: %v", e.Chain, e.URL, e.Op, e.Cause)
}

// Unwrap returns the underlying cause
func (e *EndpointError) Unwrap() error {
	return e.Cause
}

// AllEndpointsFailedError represents one full ordered pass over a chain's
// endpoint list where every endpoint failed. The retry layer recovers it by
// repeating the whole pass; LastErr carries the final endpoint's failure.
type AllEndpointsFailedError struct {
	Chain     string `json:"chain"`
	Op        string `json:"op"`
	Endpoints int    `json:"endpoints"`
	LastErr   error  `json:"-"`
}

// NewAllEndpointsFailedError creates a new AllEndpointsFailedError
func NewAllEndpointsFailedError(chain, op string, endpoints int, lastErr error) *AllEndpointsFailedError {
	return &AllEndpointsFailedError{
		Chain:     chain,
		Op:        op,
		Endpoints: endpoints,
		LastErr:   lastErr,
	}
}

// Error implements the error interface
func (e *AllEndpointsFailedError) Error() string {
	return fmt.Sprintf("[%s] all %d endpoints failed during %s: %v", e.Chain, e.Endpoints, e.Op, e.LastErr)
}

// Unwrap returns the last endpoint's error
func (e *AllEndpointsFailedError) Unwrap() error {
	return e.LastErr
}

// ChainFetchError represents an exhausted supply fetch for one chain: every
// retry of every endpoint pass failed. It is fatal to the global fetch.
type ChainFetchError struct {
	Chain    string `json:"chain"`
	Attempts int    `json:"attempts"`
	Cause    error  `json:"-"`
}

// NewChainFetchError creates a new ChainFetchError
func NewChainFetchError(chain string, attempts int, cause error) *ChainFetchError {
	return &ChainFetchError{
		Chain:    chain,
		Attempts: attempts,
		Cause:    cause,
	}
}

// Error implements the error interface
func (e *ChainFetchError) Error() string {
	return fmt.Sprintf("[%s] supply fetch failed after %d attempts: %v", e.Chain, e.Attempts, e.Cause)
}

// Unwrap returns the underlying cause
func (e *ChainFetchError) Unwrap() error {
	return e.Cause
}

// DecimalsFetchError represents an exhausted decimals fetch from the canonical
// chain. Treated exactly like a chain fetch failure by the global aggregator.
type DecimalsFetchError struct {
	Chain string `json:"chain"`
	Cause error  `json:"-"`
}

// NewDecimalsFetchError creates a new DecimalsFetchError
func NewDecimalsFetchError(chain string, cause error) *DecimalsFetchError {
	return &DecimalsFetchError{
		Chain: chain,
		Cause: cause,
	}
}

// Error implements the error interface
func (e *DecimalsFetchError) Error() string {
	return fmt.Sprintf("[%s] decimals fetch failed: %v", e.Chain, e.Cause)
}

// Unwrap returns the underlying cause
func (e *DecimalsFetchError) Unwrap() error {
	return e.Cause
}
