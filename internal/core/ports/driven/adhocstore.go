package driven

import (
	"context"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

// AdhocStore tracks which one-time files have already been synchronised
// per rule. Records are permanent; there is no time-window scoping.
type AdhocStore interface {
	// IsSynced reports whether a synced record exists for the pair.
	IsSynced(ctx context.Context, ruleID, filename string) (bool, error)

	// MarkSynced inserts a synced record after a successful transfer.
	MarkSynced(ctx context.Context, record domain.AdhocSyncRecord) error

	// ListByRule returns all records for a rule.
	ListByRule(ctx context.Context, ruleID string) ([]domain.AdhocSyncRecord, error)
}
