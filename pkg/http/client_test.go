package http

import (
	"crypto/tls"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("gateway profile dedicates the pool to one host", func(t *testing.T) {
		client := NewClient(GatewayClientConfig(), 30*time.Second)

		transport, ok := client.Transport.(*http.Transport)
		require.True(t, ok)
		assert.Equal(t, 50, transport.MaxIdleConnsPerHost)
		assert.Equal(t, transport.MaxIdleConns, transport.MaxIdleConnsPerHost)
		assert.Equal(t, 30*time.Second, client.Timeout)
	})

	t.Run("default profile spreads the pool across hosts", func(t *testing.T) {
		client := NewClient(DefaultClientConfig(), 10*time.Second)

		transport, ok := client.Transport.(*http.Transport)
		require.True(t, ok)
		assert.Equal(t, 10, transport.MaxIdleConnsPerHost)
		assert.Greater(t, transport.MaxIdleConns, transport.MaxIdleConnsPerHost)
	})

	t.Run("enforces a TLS floor", func(t *testing.T) {
		client := NewClient(DefaultClientConfig(), time.Second)

		transport := client.Transport.(*http.Transport)
		assert.Equal(t, uint16(tls.VersionTLS12), transport.TLSClientConfig.MinVersion)
		assert.True(t, transport.ForceAttemptHTTP2)
	})
}
