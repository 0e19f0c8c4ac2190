package rpcpool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockClient implements the Client interface for testing
type mockClient struct {
	shouldFail bool
	closed     bool
}

func (m *mockClient) Ping(ctx context.Context) error {
	if m.shouldFail {
		return errors.New("mock client ping failed")
	}
	return nil
}

func (m *mockClient) Close() error {
	m.closed = true
	return nil
}

func TestNewEndpoint(t *testing.T) {
	endpoint := NewEndpoint("http://test.com")

	assert.Equal(t, "http://test.com", endpoint.URL)
	assert.Equal(t, StateHealthy, endpoint.State)
	assert.NotNil(t, endpoint.Metrics)
	assert.Nil(t, endpoint.Client)
}

func TestEndpoint_SetAndGetClient(t *testing.T) {
	endpoint := NewEndpoint("http://test.com")
	client := &mockClient{}

	endpoint.SetClient(client)
	retrievedClient := endpoint.GetClient()

	assert.Equal(t, client, retrievedClient)
}

func TestEndpoint_StateManagement(t *testing.T) {
	endpoint := NewEndpoint("http://test.com")

	// Initial state
	assert.Equal(t, StateHealthy, endpoint.GetState())

	endpoint.UpdateState(StateDegraded)
	assert.Equal(t, StateDegraded, endpoint.GetState())

	endpoint.UpdateState(StateUnreachable)
	assert.Equal(t, StateUnreachable, endpoint.GetState())
}

func TestEndpoint_MarkUsed(t *testing.T) {
	endpoint := NewEndpoint("http://test.com")
	assert.True(t, endpoint.GetLastUsed().IsZero())

	before := time.Now()
	endpoint.MarkUsed()
	after := time.Now()

	lastUsed := endpoint.GetLastUsed()
	assert.True(t, lastUsed.After(before) || lastUsed.Equal(before))
	assert.True(t, lastUsed.Before(after) || lastUsed.Equal(after))
}

func TestEndpointState_String(t *testing.T) {
	assert.Equal(t, "healthy", StateHealthy.String())
	assert.Equal(t, "degraded", StateDegraded.String())
	assert.Equal(t, "unreachable", StateUnreachable.String())
	assert.Equal(t, "unknown", EndpointState(99).String())
}

func TestEndpointMetrics_UpdateSuccess(t *testing.T) {
	metrics := &EndpointMetrics{}
	latency := 50 * time.Millisecond

	metrics.UpdateSuccess(latency)

	assert.Equal(t, uint64(1), metrics.TotalRequests)
	assert.Equal(t, uint64(1), metrics.SuccessfulRequests)
	assert.Equal(t, uint64(0), metrics.FailedRequests)
	assert.Equal(t, 0, metrics.ConsecutiveFailures)
	assert.Equal(t, latency, metrics.GetAverageLatency())
	assert.Equal(t, 1.0, metrics.GetSuccessRate())
}

func TestEndpointMetrics_UpdateFailure(t *testing.T) {
	metrics := &EndpointMetrics{}
	err := errors.New("test error")
	latency := 100 * time.Millisecond

	metrics.UpdateFailure(err, latency)

	assert.Equal(t, uint64(1), metrics.TotalRequests)
	assert.Equal(t, uint64(0), metrics.SuccessfulRequests)
	assert.Equal(t, uint64(1), metrics.FailedRequests)
	assert.Equal(t, 1, metrics.ConsecutiveFailures)
	assert.Equal(t, err, metrics.GetLastError())
	assert.Equal(t, 0.0, metrics.GetSuccessRate())
}

func TestEndpointMetrics_LatencyMovingAverage(t *testing.T) {
	metrics := &EndpointMetrics{}

	metrics.UpdateSuccess(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, metrics.GetAverageLatency())

	// EMA with alpha 0.1: 0.9*100ms + 0.1*200ms = 110ms
	metrics.UpdateSuccess(200 * time.Millisecond)
	assert.InDelta(t, float64(110*time.Millisecond), float64(metrics.GetAverageLatency()), float64(time.Millisecond))
}

func TestEndpointMetrics_ConsecutiveFailures(t *testing.T) {
	metrics := &EndpointMetrics{}

	metrics.UpdateFailure(errors.New("error1"), 0)
	assert.Equal(t, 1, metrics.GetConsecutiveFailures())

	metrics.UpdateFailure(errors.New("error2"), 0)
	assert.Equal(t, 2, metrics.GetConsecutiveFailures())

	// Success should reset consecutive failures
	metrics.UpdateSuccess(10 * time.Millisecond)
	assert.Equal(t, 0, metrics.GetConsecutiveFailures())
}

func TestEndpointMetrics_GetRequestCounts(t *testing.T) {
	metrics := &EndpointMetrics{}

	metrics.UpdateSuccess(10 * time.Millisecond)
	metrics.UpdateSuccess(10 * time.Millisecond)
	metrics.UpdateFailure(errors.New("error"), 0)

	total, failed := metrics.GetRequestCounts()
	assert.Equal(t, uint64(3), total)
	assert.Equal(t, uint64(1), failed)
}

func TestEndpointMetrics_ThreadSafety(t *testing.T) {
	metrics := &EndpointMetrics{}

	// Run concurrent operations
	done := make(chan bool, 100)

	// Start 50 goroutines doing success updates
	for i := 0; i < 50; i++ {
		go func() {
			metrics.UpdateSuccess(10 * time.Millisecond)
			done <- true
		}()
	}

	// Start 50 goroutines doing failure updates
	for i := 0; i < 50; i++ {
		go func() {
			metrics.UpdateFailure(errors.New("test"), 10*time.Millisecond)
			done <- true
		}()
	}

	// Wait for all goroutines to complete
	for i := 0; i < 100; i++ {
		<-done
	}

	// Verify final state is consistent
	total, failed := metrics.GetRequestCounts()
	assert.Equal(t, uint64(100), total)
	assert.Equal(t, uint64(50), failed)
	assert.Equal(t, 0.5, metrics.GetSuccessRate())
}
