package sftp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

func TestNewClient_AppliesDefaults(t *testing.T) {
	client := NewClient(Config{Host: "sftp.partner.example", Username: "drop"})

	assert.Equal(t, defaultPort, client.config.Port)
	assert.Equal(t, defaultConnectTimeout, client.config.ConnectTimeout)
	assert.Nil(t, client.limiter)
}

func TestNewClient_ThrottleEnabled(t *testing.T) {
	client := NewClient(Config{
		Host:             "sftp.partner.example",
		Username:         "drop",
		UploadsPerSecond: 2.5,
	})

	require.NotNil(t, client.limiter)
	assert.InEpsilon(t, 2.5, float64(client.limiter.Limit()), 0.001)
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, time.Duration(0), backoffDelay(1))
	assert.Equal(t, reconnectDelay, backoffDelay(2))
	assert.Equal(t, 2*reconnectDelay, backoffDelay(3))
}

func TestAuthMethods_PasswordOnly(t *testing.T) {
	client := NewClient(Config{
		Host:     "sftp.partner.example",
		Username: "drop",
		Password: "secret",
	})

	methods, err := client.authMethods()
	require.NoError(t, err)
	assert.Len(t, methods, 1)
}

func TestAuthMethods_NoneConfigured(t *testing.T) {
	client := NewClient(Config{Host: "sftp.partner.example", Username: "drop"})

	_, err := client.authMethods()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAuthMethods_MissingKeyFile(t *testing.T) {
	client := NewClient(Config{
		Host:     "sftp.partner.example",
		Username: "drop",
		KeyFile:  "/nonexistent/id_ed25519",
	})

	_, err := client.authMethods()
	assert.Error(t, err)
}

func TestConnect_UnreachableHostWrapsRemoteUnavailable(t *testing.T) {
	client := NewClient(Config{
		Host:           "127.0.0.1",
		Port:           1, // nothing listens here
		Username:       "drop",
		Password:       "secret",
		ConnectTimeout: 200 * time.Millisecond,
	})

	err := client.Connect(context.Background())
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestDisconnect_WithoutConnect(t *testing.T) {
	client := NewClient(Config{Host: "sftp.partner.example", Username: "drop"})
	assert.NoError(t, client.Disconnect())
}
