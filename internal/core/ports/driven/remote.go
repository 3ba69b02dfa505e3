package driven

import "context"

// RemoteEntry is one listing entry on the remote store.
type RemoteEntry struct {
	Name  string
	Size  int64
	IsDir bool
}

// RemoteStore is the partner-facing remote file store (SFTP-like). It is
// a single stateful protocol session: one connection, one working
// directory cursor, shared across the whole run. Reconnect-with-backoff
// on failure is owned by the adapter, not the orchestrator.
type RemoteStore interface {
	// Connect establishes the session.
	Connect(ctx context.Context) error

	// EnsureConnection probes liveness and reconnects if needed.
	EnsureConnection(ctx context.Context) error

	// Disconnect closes the session.
	Disconnect() error

	// Exists reports whether a remote path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the entries under a remote directory.
	List(ctx context.Context, path string) ([]RemoteEntry, error)

	// Mkdir creates a remote directory, with parents when recursive.
	Mkdir(ctx context.Context, path string, recursive bool) error

	// Upload copies a local file to a remote path.
	Upload(ctx context.Context, localPath, remotePath string) error

	// Delete removes a remote file or empty directory.
	Delete(ctx context.Context, path string) error
}
