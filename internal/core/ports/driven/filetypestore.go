package driven

import (
	"context"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

// FileTypeStore provides access to the file-type registry referenced by
// filetype-matching rules.
type FileTypeStore interface {
	// Get retrieves a registry entry by ID.
	Get(ctx context.Context, id string) (*domain.FileType, error)

	// List returns all registry entries.
	List(ctx context.Context) ([]domain.FileType, error)
}

// UploadStore provides access to previously-recorded uploads. Filetype
// rules enumerate these instead of listing a directory.
type UploadStore interface {
	// ListByFileType returns uploads tagged with a file type.
	ListByFileType(ctx context.Context, fileTypeID string) ([]domain.UploadRecord, error)

	// Record inserts an upload record. Used by tooling and tests.
	Record(ctx context.Context, upload domain.UploadRecord) error
}
