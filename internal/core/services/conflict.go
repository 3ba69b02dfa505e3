package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/dropsync-cli/internal/logger"
)

// ConflictAction is the decision a conflict resolution produces.
type ConflictAction string

const (
	ActionUpload ConflictAction = "upload"
	ActionSkip   ConflictAction = "skip"
)

// Resolution is the outcome of resolving one destination path.
type Resolution struct {
	Action    ConflictAction
	FinalPath string
	Reason    string
}

// defaultMaxRenameAttempts caps the rename probe. An unbounded probe
// loops forever against a full remote directory.
const defaultMaxRenameAttempts = 100

// ConflictResolver decides what to do when a destination path may
// already exist on the remote store.
//
// Existence-check failures are treated optimistically: attempting an
// upload is preferred over silently dropping a file.
type ConflictResolver struct {
	remote      driven.RemoteStore
	maxAttempts int
}

// NewConflictResolver creates a resolver over the remote store.
func NewConflictResolver(remote driven.RemoteStore) *ConflictResolver {
	return &ConflictResolver{
		remote:      remote,
		maxAttempts: defaultMaxRenameAttempts,
	}
}

// Resolve applies a conflict policy to a destination path.
func (r *ConflictResolver) Resolve(
	ctx context.Context,
	policy domain.ConflictPolicy,
	destPath string,
) (Resolution, error) {
	switch policy {
	case domain.ConflictOverwrite:
		// No existence check; upload at the given path.
		return Resolution{Action: ActionUpload, FinalPath: destPath}, nil

	case domain.ConflictSkip:
		exists, err := r.remote.Exists(ctx, destPath)
		if err != nil {
			logger.Warn("existence check failed for %s, assuming absent: %v", destPath, err)
			return Resolution{
				Action:    ActionUpload,
				FinalPath: destPath,
				Reason:    "existence check failed, assuming absent",
			}, nil
		}
		if exists {
			return Resolution{
				Action:    ActionSkip,
				FinalPath: destPath,
				Reason:    "destination already exists",
			}, nil
		}
		return Resolution{Action: ActionUpload, FinalPath: destPath}, nil

	case domain.ConflictRename:
		return r.resolveRename(ctx, destPath)

	default:
		return Resolution{}, fmt.Errorf("%w: conflict policy %q", domain.ErrInvalidRule, policy)
	}
}

// resolveRename probes name_1.ext, name_2.ext, ... until an absent path
// is found, the existence check fails (last probed path accepted as-is),
// or the attempt cap is reached.
func (r *ConflictResolver) resolveRename(ctx context.Context, destPath string) (Resolution, error) {
	exists, err := r.remote.Exists(ctx, destPath)
	if err != nil || !exists {
		return Resolution{Action: ActionUpload, FinalPath: destPath}, nil
	}

	dir, base, ext := splitRemotePath(destPath)
	for i := 1; i <= r.maxAttempts; i++ {
		probe := path.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		exists, err := r.remote.Exists(ctx, probe)
		if err != nil {
			logger.Warn("existence check failed while probing %s, accepting as-is: %v", probe, err)
			return Resolution{
				Action:    ActionUpload,
				FinalPath: probe,
				Reason:    "existence check failed during rename probe",
			}, nil
		}
		if !exists {
			return Resolution{
				Action:    ActionUpload,
				FinalPath: probe,
				Reason:    fmt.Sprintf("renamed from %s", path.Base(destPath)),
			}, nil
		}
	}

	return Resolution{}, fmt.Errorf("%w: %s after %d attempts", domain.ErrConflictExhausted, destPath, r.maxAttempts)
}

// splitRemotePath splits a remote path into directory, base name without
// extension, and extension including its dot.
func splitRemotePath(p string) (dir, base, ext string) {
	dir = path.Dir(p)
	name := path.Base(p)
	ext = path.Ext(name)
	base = strings.TrimSuffix(name, ext)
	return dir, base, ext
}
