package api

import (
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	supplies := newTestSupply()

	t.Run("create server with valid config", func(t *testing.T) {
		server := NewServer(supplies, nil, 8080, logger)

		assert.NotNil(t, server)
		assert.NotNil(t, server.server)
		assert.Equal(t, ":8080", server.server.Addr)
	})

	t.Run("create server with different port", func(t *testing.T) {
		server := NewServer(supplies, nil, 9090, logger)

		assert.NotNil(t, server)
		assert.Equal(t, ":9090", server.server.Addr)
	})
}

func TestServerStartStop(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	supplies := newTestSupply()

	t.Run("start and stop server", func(t *testing.T) {
		server := NewServer(supplies, nil, 0, logger)

		err := server.Start()
		require.NoError(t, err)

		err = server.Stop()
		assert.NoError(t, err)
	})

	t.Run("start with nil server", func(t *testing.T) {
		server := &Server{
			logger: logger,
			supply: supplies,
		}

		err := server.Start()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "api server is nil")
	})

	t.Run("stop with nil server", func(t *testing.T) {
		server := &Server{
			logger: logger,
			supply: supplies,
		}

		err := server.Stop()
		assert.NoError(t, err)
	})
}

func TestServerIntegration(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	supplies := newTestSupply()

	const port = 18091
	server := NewServer(supplies, nil, port, logger)

	err := server.Start()
	require.NoError(t, err)
	defer server.Stop()

	// Give the listener a moment to come up after the bind probe.
	time.Sleep(200 * time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/circulating-supply", port))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "FRESH", resp.Header.Get(CacheStatusHeader))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "900000000", string(body))
}
