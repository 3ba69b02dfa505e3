package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
)

// Ensure AdhocStore implements the interface.
var _ driven.AdhocStore = (*AdhocStore)(nil)

// AdhocStore is an in-memory implementation of driven.AdhocStore.
type AdhocStore struct {
	mu      sync.RWMutex
	records map[adhocKey]domain.AdhocSyncRecord
}

type adhocKey struct {
	ruleID   string
	filename string
}

// NewAdhocStore creates a new in-memory adhoc store.
func NewAdhocStore() *AdhocStore {
	return &AdhocStore{records: make(map[adhocKey]domain.AdhocSyncRecord)}
}

// IsSynced reports whether a synced record exists for the pair.
func (s *AdhocStore) IsSynced(_ context.Context, ruleID, filename string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[adhocKey{ruleID, filename}]
	return ok && record.Status == domain.AdhocStatusSynced, nil
}

// MarkSynced inserts a synced record.
func (s *AdhocStore) MarkSynced(_ context.Context, record domain.AdhocSyncRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := adhocKey{record.RuleID, record.Filename}
	if _, ok := s.records[key]; ok {
		return domain.ErrAlreadyExists
	}
	s.records[key] = record
	return nil
}

// ListByRule returns all records for a rule.
func (s *AdhocStore) ListByRule(_ context.Context, ruleID string) ([]domain.AdhocSyncRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AdhocSyncRecord
	for key, record := range s.records {
		if key.ruleID == ruleID {
			out = append(out, record)
		}
	}
	return out, nil
}
