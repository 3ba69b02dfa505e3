package driven

import (
	"context"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

// RuleStore provides access to persisted mapping rules. Rules are created
// and edited by the excluded CRUD layer; the core only reads them.
type RuleStore interface {
	// Get retrieves a rule by ID.
	Get(ctx context.Context, id string) (*domain.MappingRule, error)

	// List returns all rules in insertion order.
	List(ctx context.Context) ([]domain.MappingRule, error)

	// ListEnabled returns enabled rules sorted by priority descending,
	// ties broken by insertion order.
	ListEnabled(ctx context.Context) ([]domain.MappingRule, error)

	// Save stores or updates a rule. Used by tooling and tests; the
	// orchestrator never writes rules.
	Save(ctx context.Context, rule domain.MappingRule) error
}
