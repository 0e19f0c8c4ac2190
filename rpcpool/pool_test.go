package rpcpool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uerrors "github.com/Figu3/trevee-supply-api/errors"
)

// mockClientFactory creates a factory for testing
func mockClientFactory(shouldFail bool) ClientFactory {
	return func(url string) (Client, error) {
		if shouldFail {
			return nil, assert.AnError
		}
		return &mockClient{}, nil
	}
}

// urlClient tags a mock client with the URL it was dialed for so Execute
// callbacks can tell endpoints apart
type urlClient struct {
	mockClient
	url string
}

func urlClientFactory() ClientFactory {
	return func(url string) (Client, error) {
		return &urlClient{url: url}, nil
	}
}

func TestNewPool(t *testing.T) {
	tests := []struct {
		name      string
		chainID   string
		urls      []string
		expectNil bool
	}{
		{
			name:    "valid pool with multiple URLs",
			chainID: "eip155:1",
			urls:    []string{"http://test1.com", "http://test2.com"},
		},
		{
			name:    "valid pool with single URL",
			chainID: "eip155:56",
			urls:    []string{"http://test1.com"},
		},
		{
			name:      "empty URLs returns nil",
			chainID:   "eip155:137",
			urls:      []string{},
			expectNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewPool(tt.chainID, tt.urls, time.Second, mockClientFactory(false), zerolog.Nop())

			if tt.expectNil {
				assert.Nil(t, pool)
				return
			}

			require.NotNil(t, pool)
			assert.Equal(t, tt.chainID, pool.ChainID())

			endpoints := pool.GetEndpoints()
			require.Len(t, endpoints, len(tt.urls))
			for i, endpoint := range endpoints {
				assert.Equal(t, tt.urls[i], endpoint.URL)
				assert.Equal(t, StateHealthy, endpoint.GetState())
			}
		})
	}
}

func TestPool_Execute_Success(t *testing.T) {
	pool := NewPool("eip155:1", []string{"http://test1.com"}, time.Second, urlClientFactory(), zerolog.Nop())
	require.NotNil(t, pool)

	var calls []string
	err := pool.Execute(context.Background(), "totalSupply", func(ctx context.Context, client Client) error {
		calls = append(calls, client.(*urlClient).url)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"http://test1.com"}, calls)

	endpoint := pool.GetEndpoints()[0]
	total, failed := endpoint.Metrics.GetRequestCounts()
	assert.Equal(t, uint64(1), total)
	assert.Equal(t, uint64(0), failed)
	assert.False(t, endpoint.GetLastUsed().IsZero())
}

func TestPool_Execute_FallbackToSecondEndpoint(t *testing.T) {
	pool := NewPool(
		"eip155:1",
		[]string{"http://primary.com", "http://fallback.com"},
		time.Second,
		urlClientFactory(),
		zerolog.Nop(),
	)
	require.NotNil(t, pool)

	var calls []string
	err := pool.Execute(context.Background(), "totalSupply", func(ctx context.Context, client Client) error {
		url := client.(*urlClient).url
		calls = append(calls, url)
		if url == "http://primary.com" {
			return errors.New("primary down")
		}
		return nil
	})

	// A fallback success is indistinguishable from a primary success
	require.NoError(t, err)
	assert.Equal(t, []string{"http://primary.com", "http://fallback.com"}, calls)

	endpoints := pool.GetEndpoints()
	_, primaryFailed := endpoints[0].Metrics.GetRequestCounts()
	fallbackTotal, fallbackFailed := endpoints[1].Metrics.GetRequestCounts()
	assert.Equal(t, uint64(1), primaryFailed)
	assert.Equal(t, uint64(1), fallbackTotal)
	assert.Equal(t, uint64(0), fallbackFailed)
}

func TestPool_Execute_OrderNeverReordered(t *testing.T) {
	pool := NewPool(
		"eip155:1",
		[]string{"http://primary.com", "http://fallback.com"},
		time.Second,
		urlClientFactory(),
		zerolog.Nop(),
	)
	require.NotNil(t, pool)

	var calls []string
	fn := func(ctx context.Context, client Client) error {
		url := client.(*urlClient).url
		calls = append(calls, url)
		if url == "http://primary.com" {
			return errors.New("primary down")
		}
		return nil
	}

	// Four passes: the primary crosses the unreachable threshold on the
	// third failure, yet every pass must still try it first
	for i := 0; i < 4; i++ {
		require.NoError(t, pool.Execute(context.Background(), "totalSupply", fn))
	}

	require.Len(t, calls, 8)
	for i := 0; i < len(calls); i += 2 {
		assert.Equal(t, "http://primary.com", calls[i])
		assert.Equal(t, "http://fallback.com", calls[i+1])
	}

	assert.Equal(t, StateUnreachable, pool.GetEndpoints()[0].GetState())
}

func TestPool_Execute_AllEndpointsFail(t *testing.T) {
	pool := NewPool(
		"eip155:1",
		[]string{"http://test1.com", "http://test2.com"},
		time.Second,
		urlClientFactory(),
		zerolog.Nop(),
	)
	require.NotNil(t, pool)

	sentinel := errors.New("execution reverted")
	err := pool.Execute(context.Background(), "balanceOf", func(ctx context.Context, client Client) error {
		return sentinel
	})
	require.Error(t, err)

	var allFailed *uerrors.AllEndpointsFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Equal(t, "eip155:1", allFailed.Chain)
	assert.Equal(t, "balanceOf", allFailed.Op)
	assert.Equal(t, 2, allFailed.Endpoints)

	// The last endpoint's failure is preserved in the chain
	var epErr *uerrors.EndpointError
	require.ErrorAs(t, err, &epErr)
	assert.Equal(t, "http://test2.com", epErr.URL)
	assert.ErrorIs(t, err, sentinel)
}

func TestPool_Execute_DialFailureCountsAsEndpointFailure(t *testing.T) {
	factory := func(url string) (Client, error) {
		if url == "http://broken.com" {
			return nil, errors.New("dial refused")
		}
		return &urlClient{url: url}, nil
	}

	pool := NewPool(
		"eip155:1",
		[]string{"http://broken.com", "http://test2.com"},
		time.Second,
		factory,
		zerolog.Nop(),
	)
	require.NotNil(t, pool)

	var calls []string
	err := pool.Execute(context.Background(), "totalSupply", func(ctx context.Context, client Client) error {
		calls = append(calls, client.(*urlClient).url)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"http://test2.com"}, calls)

	_, brokenFailed := pool.GetEndpoints()[0].Metrics.GetRequestCounts()
	assert.Equal(t, uint64(1), brokenFailed)
}

func TestPool_Execute_RedialsAfterFailedDial(t *testing.T) {
	dialAttempts := make(map[string]int)
	factory := func(url string) (Client, error) {
		dialAttempts[url]++
		if url == "http://test1.com" && dialAttempts[url] == 1 {
			return nil, errors.New("dial refused")
		}
		return &urlClient{url: url}, nil
	}

	pool := NewPool(
		"eip155:1",
		[]string{"http://test1.com", "http://test2.com"},
		time.Second,
		factory,
		zerolog.Nop(),
	)
	require.NotNil(t, pool)

	var calls []string
	fn := func(ctx context.Context, client Client) error {
		calls = append(calls, client.(*urlClient).url)
		return nil
	}

	// First pass falls through to the second endpoint
	require.NoError(t, pool.Execute(context.Background(), "totalSupply", fn))
	// Second pass redials the first endpoint and succeeds there
	require.NoError(t, pool.Execute(context.Background(), "totalSupply", fn))

	assert.Equal(t, []string{"http://test2.com", "http://test1.com"}, calls)
	assert.Equal(t, 2, dialAttempts["http://test1.com"])
}

func TestPool_Execute_ContextCancelled(t *testing.T) {
	pool := NewPool("eip155:1", []string{"http://test1.com"}, time.Second, urlClientFactory(), zerolog.Nop())
	require.NotNil(t, pool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := pool.Execute(ctx, "totalSupply", func(ctx context.Context, client Client) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestPool_StartAndStop(t *testing.T) {
	pool := NewPool(
		"eip155:1",
		[]string{"http://test1.com", "http://test2.com"},
		time.Second,
		mockClientFactory(false),
		zerolog.Nop(),
	)
	require.NotNil(t, pool)

	ctx := context.Background()
	pool.Start(ctx, 0, nil)

	// All endpoints dialed eagerly
	for _, endpoint := range pool.GetEndpoints() {
		require.NotNil(t, endpoint.GetClient())
	}

	client := pool.GetEndpoints()[0].GetClient().(*mockClient)
	assert.False(t, client.closed)

	pool.Stop()

	assert.True(t, client.closed)
}

func TestPool_Start_DialFailuresTolerated(t *testing.T) {
	pool := NewPool(
		"eip155:1",
		[]string{"http://test1.com"},
		time.Second,
		mockClientFactory(true),
		zerolog.Nop(),
	)
	require.NotNil(t, pool)

	pool.Start(context.Background(), 0, nil)
	defer pool.Stop()

	endpoint := pool.GetEndpoints()[0]
	assert.Nil(t, endpoint.GetClient())
	assert.Equal(t, StateUnreachable, endpoint.GetState())

	// The pool stays usable; calls report the dial failure per pass
	err := pool.Execute(context.Background(), "totalSupply", func(ctx context.Context, client Client) error {
		return nil
	})
	var allFailed *uerrors.AllEndpointsFailedError
	assert.ErrorAs(t, err, &allFailed)
}

func TestPool_UpdateEndpointHealth_StateTransitions(t *testing.T) {
	pool := NewPool("eip155:1", []string{"http://test1.com"}, time.Second, mockClientFactory(false), zerolog.Nop())
	require.NotNil(t, pool)

	endpoint := pool.GetEndpoints()[0]

	// Consecutive failures below the threshold leave the label degraded
	pool.UpdateEndpointHealth(endpoint, true, 10*time.Millisecond, nil)
	pool.UpdateEndpointHealth(endpoint, false, 0, assert.AnError)
	pool.UpdateEndpointHealth(endpoint, false, 0, assert.AnError)
	assert.Equal(t, StateDegraded, endpoint.GetState())

	// Crossing the threshold marks the endpoint unreachable
	pool.UpdateEndpointHealth(endpoint, false, 0, assert.AnError)
	assert.Equal(t, StateUnreachable, endpoint.GetState())

	// Sustained successes recover it once the success rate clears 0.8
	for i := 0; i < 20; i++ {
		pool.UpdateEndpointHealth(endpoint, true, 10*time.Millisecond, nil)
	}
	assert.Equal(t, StateHealthy, endpoint.GetState())
}

func TestPool_HealthStatus(t *testing.T) {
	pool := NewPool(
		"eip155:1",
		[]string{"http://test1.com", "http://test2.com"},
		time.Second,
		mockClientFactory(false),
		zerolog.Nop(),
	)
	require.NotNil(t, pool)

	endpoints := pool.GetEndpoints()
	pool.UpdateEndpointHealth(endpoints[0], true, 10*time.Millisecond, nil)
	for i := 0; i < 3; i++ {
		pool.UpdateEndpointHealth(endpoints[1], false, 0, errors.New("connection refused"))
	}

	status := pool.HealthStatus()
	require.NotNil(t, status)

	assert.Equal(t, "eip155:1", status.ChainID)
	assert.Equal(t, 2, status.TotalEndpoints)
	assert.Equal(t, 1, status.HealthyCount)
	assert.Equal(t, 0, status.DegradedCount)
	assert.Equal(t, 1, status.UnreachableCount)

	require.Len(t, status.Endpoints, 2)
	assert.Equal(t, "http://test1.com", status.Endpoints[0].URL)
	assert.Equal(t, "healthy", status.Endpoints[0].State)
	assert.Equal(t, uint64(1), status.Endpoints[0].RequestCount)

	assert.Equal(t, "unreachable", status.Endpoints[1].State)
	assert.Equal(t, uint64(3), status.Endpoints[1].FailureCount)
	assert.Contains(t, status.Endpoints[1].LastError, "connection refused")
}
