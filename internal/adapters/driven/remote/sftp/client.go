// Package sftp implements the partner-facing remote store over SFTP.
//
// The client holds a single stateful session shared across a whole run.
// Reconnect-with-backoff on a dead session is owned here; callers only
// see EnsureConnection.
package sftp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/dropsync-cli/internal/logger"
)

const (
	defaultPort           = 22
	defaultConnectTimeout = 15 * time.Second
	reconnectAttempts     = 3
	reconnectDelay        = 2 * time.Second
)

// Config holds the SFTP connection settings.
type Config struct {
	// Host is the remote hostname or address.
	Host string

	// Port defaults to 22 when zero.
	Port int

	// Username authenticates the session.
	Username string

	// Password enables password authentication when non-empty.
	Password string

	// KeyFile enables public key authentication when non-empty.
	KeyFile string

	// KnownHostsFile verifies the server host key. When empty the host
	// key is not verified.
	KnownHostsFile string

	// UploadsPerSecond throttles uploads. Zero disables throttling.
	UploadsPerSecond float64

	// ConnectTimeout bounds the TCP dial. Defaults to 15 seconds.
	ConnectTimeout time.Duration
}

// Ensure Client implements the interface.
var _ driven.RemoteStore = (*Client)(nil)

// Client is an SFTP-backed implementation of driven.RemoteStore.
type Client struct {
	config  Config
	limiter *rate.Limiter

	mu         sync.Mutex
	sshClient  *ssh.Client
	sftpClient *sftp.Client
}

// NewClient creates a new SFTP client. No connection is made until
// Connect is called.
func NewClient(config Config) *Client {
	if config.Port == 0 {
		config.Port = defaultPort
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = defaultConnectTimeout
	}

	var limiter *rate.Limiter
	if config.UploadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.UploadsPerSecond), 1)
	}

	return &Client{
		config:  config,
		limiter: limiter,
	}
}

// Connect establishes the SSH session and opens an SFTP subsystem on it.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	auth, err := c.authMethods()
	if err != nil {
		return err
	}

	hostKeyCallback, err := c.hostKeyCallback()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	sshClient, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            c.config.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.config.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("%w: dialling %s: %v", domain.ErrRemoteUnavailable, addr, err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return fmt.Errorf("%w: opening sftp subsystem: %v", domain.ErrRemoteUnavailable, err)
	}

	c.closeLocked()
	c.sshClient = sshClient
	c.sftpClient = sftpClient
	logger.Debug("sftp: connected to %s as %s", addr, c.config.Username)
	return nil
}

// EnsureConnection probes the session and reconnects with linear backoff
// when it is dead.
func (c *Client) EnsureConnection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sftpClient != nil {
		if _, err := c.sftpClient.Getwd(); err == nil {
			return nil
		}
		logger.Debug("sftp: session probe failed, reconnecting")
	}

	var lastErr error
	for attempt := 1; attempt <= reconnectAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay(attempt)):
			}
		}
		if lastErr = c.connectLocked(ctx); lastErr == nil {
			return nil
		}
		logger.Debug("sftp: reconnect attempt %d/%d failed: %v", attempt, reconnectAttempts, lastErr)
	}
	return fmt.Errorf("reconnecting after %d attempts: %w", reconnectAttempts, lastErr)
}

// backoffDelay returns the wait before the given reconnect attempt.
// Attempt 2 waits one delay unit, attempt 3 two units.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(attempt-1) * reconnectDelay
}

// Disconnect closes the session.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

func (c *Client) closeLocked() {
	if c.sftpClient != nil {
		c.sftpClient.Close()
		c.sftpClient = nil
	}
	if c.sshClient != nil {
		c.sshClient.Close()
		c.sshClient = nil
	}
}

// Exists reports whether a remote path exists.
func (c *Client) Exists(ctx context.Context, remotePath string) (bool, error) {
	client, err := c.session(ctx)
	if err != nil {
		return false, err
	}

	if _, err := client.Stat(remotePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking %s: %w", remotePath, err)
	}
	return true, nil
}

// List returns the entries under a remote directory.
func (c *Client) List(ctx context.Context, remotePath string) ([]driven.RemoteEntry, error) {
	client, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	infos, err := client.ReadDir(remotePath)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", remotePath, err)
	}

	entries := make([]driven.RemoteEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, driven.RemoteEntry{
			Name:  info.Name(),
			Size:  info.Size(),
			IsDir: info.IsDir(),
		})
	}
	return entries, nil
}

// Mkdir creates a remote directory, with parents when recursive.
func (c *Client) Mkdir(ctx context.Context, remotePath string, recursive bool) error {
	client, err := c.session(ctx)
	if err != nil {
		return err
	}

	if recursive {
		if err := client.MkdirAll(remotePath); err != nil {
			return fmt.Errorf("creating %s: %w", remotePath, err)
		}
		return nil
	}
	if err := client.Mkdir(remotePath); err != nil {
		return fmt.Errorf("creating %s: %w", remotePath, err)
	}
	return nil
}

// Upload copies a local file to a remote path, honouring the upload
// throttle when one is configured.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	client, err := c.session(ctx)
	if err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer src.Close()

	dst, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", remotePath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("uploading %s: %w", path.Base(localPath), err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", remotePath, err)
	}
	return nil
}

// Delete removes a remote file or empty directory.
func (c *Client) Delete(ctx context.Context, remotePath string) error {
	client, err := c.session(ctx)
	if err != nil {
		return err
	}

	if err := client.Remove(remotePath); err != nil {
		return fmt.Errorf("removing %s: %w", remotePath, err)
	}
	return nil
}

// session returns the live SFTP client, connecting on first use.
func (c *Client) session(ctx context.Context) (*sftp.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sftpClient == nil {
		if err := c.connectLocked(ctx); err != nil {
			return nil, err
		}
	}
	return c.sftpClient, nil
}

// authMethods assembles the configured SSH authentication methods.
func (c *Client) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if c.config.KeyFile != "" {
		keyData, err := os.ReadFile(c.config.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, fmt.Errorf("parsing key file: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if c.config.Password != "" {
		methods = append(methods, ssh.Password(c.config.Password))
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("%w: no authentication method configured", domain.ErrInvalidInput)
	}
	return methods, nil
}

// hostKeyCallback builds the host key verifier. Without a known hosts
// file the server key is accepted unverified.
func (c *Client) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.config.KnownHostsFile == "" {
		logger.Warn("sftp: no known hosts file configured, host key not verified")
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // opt-in when unconfigured
	}
	callback, err := knownhosts.New(c.config.KnownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("loading known hosts: %w", err)
	}
	return callback, nil
}
