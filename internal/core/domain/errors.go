package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRule indicates a mapping rule is misconfigured.
	ErrInvalidRule = errors.New("invalid mapping rule")

	// ErrUnknownKey indicates a decryption key identity that the key
	// schedule does not recognise. This is a configuration error.
	ErrUnknownKey = errors.New("unknown decryption key")

	// ErrSourceMissing indicates the configured source directory for a
	// batch does not exist at all. Fatal to the whole batch.
	ErrSourceMissing = errors.New("source directory missing")

	// ErrConflictExhausted indicates the rename probe hit its attempt cap
	// without finding a free destination path.
	ErrConflictExhausted = errors.New("rename conflict resolution exhausted")

	// ErrRemoteUnavailable indicates the remote file store session is down
	// and could not be re-established.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrRunInProgress indicates a sync run is already active.
	ErrRunInProgress = errors.New("sync run in progress")
)
