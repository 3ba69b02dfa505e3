package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

func TestConflictResolver_OverwriteSkipsExistenceCheck(t *testing.T) {
	remote := newMockRemote()
	remote.existing["/out/a.txt"] = true

	resolver := NewConflictResolver(remote)
	res, err := resolver.Resolve(context.Background(), domain.ConflictOverwrite, "/out/a.txt")
	require.NoError(t, err)

	assert.Equal(t, ActionUpload, res.Action)
	assert.Equal(t, "/out/a.txt", res.FinalPath)
	assert.Empty(t, remote.existsCalls)
}

func TestConflictResolver_SkipWhenExists(t *testing.T) {
	remote := newMockRemote()
	remote.existing["/out/a.txt"] = true

	resolver := NewConflictResolver(remote)
	res, err := resolver.Resolve(context.Background(), domain.ConflictSkip, "/out/a.txt")
	require.NoError(t, err)

	assert.Equal(t, ActionSkip, res.Action)
	assert.Equal(t, "destination already exists", res.Reason)
}

func TestConflictResolver_SkipUploadsWhenAbsent(t *testing.T) {
	resolver := NewConflictResolver(newMockRemote())
	res, err := resolver.Resolve(context.Background(), domain.ConflictSkip, "/out/a.txt")
	require.NoError(t, err)

	assert.Equal(t, ActionUpload, res.Action)
	assert.Equal(t, "/out/a.txt", res.FinalPath)
}

func TestConflictResolver_SkipOptimisticOnCheckFailure(t *testing.T) {
	remote := newMockRemote()
	remote.existsErr = errors.New("connection reset")

	resolver := NewConflictResolver(remote)
	res, err := resolver.Resolve(context.Background(), domain.ConflictSkip, "/out/a.txt")
	require.NoError(t, err)

	assert.Equal(t, ActionUpload, res.Action)
	assert.Equal(t, "/out/a.txt", res.FinalPath)
}

func TestConflictResolver_RenameProbesSuffixes(t *testing.T) {
	remote := newMockRemote()
	remote.existing["/out/a.txt"] = true
	remote.existing["/out/a_1.txt"] = true

	resolver := NewConflictResolver(remote)
	res, err := resolver.Resolve(context.Background(), domain.ConflictRename, "/out/a.txt")
	require.NoError(t, err)

	assert.Equal(t, ActionUpload, res.Action)
	assert.Equal(t, "/out/a_2.txt", res.FinalPath)
	assert.Equal(t, "renamed from a.txt", res.Reason)
}

func TestConflictResolver_RenameNoConflict(t *testing.T) {
	resolver := NewConflictResolver(newMockRemote())
	res, err := resolver.Resolve(context.Background(), domain.ConflictRename, "/out/a.txt")
	require.NoError(t, err)

	assert.Equal(t, ActionUpload, res.Action)
	assert.Equal(t, "/out/a.txt", res.FinalPath)
}

func TestConflictResolver_RenameExhausted(t *testing.T) {
	remote := newMockRemote()
	remote.existing["/out/a.txt"] = true
	remote.existing["/out/a_1.txt"] = true
	remote.existing["/out/a_2.txt"] = true
	remote.existing["/out/a_3.txt"] = true

	resolver := NewConflictResolver(remote)
	resolver.maxAttempts = 3

	_, err := resolver.Resolve(context.Background(), domain.ConflictRename, "/out/a.txt")
	assert.ErrorIs(t, err, domain.ErrConflictExhausted)
}

func TestConflictResolver_UnknownPolicy(t *testing.T) {
	resolver := NewConflictResolver(newMockRemote())
	_, err := resolver.Resolve(context.Background(), domain.ConflictPolicy("merge"), "/out/a.txt")
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
}

func TestSplitRemotePath(t *testing.T) {
	tests := []struct {
		path string
		dir  string
		base string
		ext  string
	}{
		{"/out/report.csv", "/out", "report", ".csv"},
		{"/out/nested/archive.tar.gz", "/out/nested", "archive.tar", ".gz"},
		{"/out/noext", "/out", "noext", ""},
	}

	for _, tt := range tests {
		dir, base, ext := splitRemotePath(tt.path)
		assert.Equal(t, tt.dir, dir)
		assert.Equal(t, tt.base, base)
		assert.Equal(t, tt.ext, ext)
	}
}
