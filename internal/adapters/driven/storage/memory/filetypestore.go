package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
)

// Ensure the stores implement their interfaces.
var (
	_ driven.FileTypeStore = (*FileTypeStore)(nil)
	_ driven.UploadStore   = (*UploadStore)(nil)
)

// FileTypeStore is an in-memory implementation of driven.FileTypeStore.
type FileTypeStore struct {
	mu    sync.RWMutex
	types map[string]domain.FileType
}

// NewFileTypeStore creates a new in-memory file type registry.
func NewFileTypeStore() *FileTypeStore {
	return &FileTypeStore{types: make(map[string]domain.FileType)}
}

// Add registers a file type.
func (s *FileTypeStore) Add(fileType domain.FileType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[fileType.ID] = fileType
}

// Get retrieves a registry entry by ID.
func (s *FileTypeStore) Get(_ context.Context, id string) (*domain.FileType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fileType, ok := s.types[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &fileType, nil
}

// List returns all registry entries.
func (s *FileTypeStore) List(_ context.Context) ([]domain.FileType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FileType, 0, len(s.types))
	for _, fileType := range s.types {
		out = append(out, fileType)
	}
	return out, nil
}

// UploadStore is an in-memory implementation of driven.UploadStore.
// Insertion order is preserved.
type UploadStore struct {
	mu      sync.RWMutex
	uploads []domain.UploadRecord
}

// NewUploadStore creates a new in-memory upload store.
func NewUploadStore() *UploadStore {
	return &UploadStore{}
}

// Record inserts an upload record.
func (s *UploadStore) Record(_ context.Context, upload domain.UploadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, upload)
	return nil
}

// ListByFileType returns uploads tagged with a file type.
func (s *UploadStore) ListByFileType(_ context.Context, fileTypeID string) ([]domain.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.UploadRecord
	for _, upload := range s.uploads {
		if upload.FileTypeID == fileTypeID {
			out = append(out, upload)
		}
	}
	return out, nil
}
