// Package memory provides in-memory implementations of the driven store
// ports. They back unit tests and small single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
)

// Ensure RuleStore implements the interface.
var _ driven.RuleStore = (*RuleStore)(nil)

// RuleStore is an in-memory implementation of driven.RuleStore.
// Insertion order is preserved for priority tie-breaking.
type RuleStore struct {
	mu    sync.RWMutex
	rules []domain.MappingRule
	index map[string]int
}

// NewRuleStore creates a new in-memory rule store.
func NewRuleStore() *RuleStore {
	return &RuleStore{index: make(map[string]int)}
}

// Save stores or updates a rule.
func (s *RuleStore) Save(_ context.Context, rule domain.MappingRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[rule.ID]; ok {
		s.rules[i] = rule
		return nil
	}
	s.index[rule.ID] = len(s.rules)
	s.rules = append(s.rules, rule)
	return nil
}

// Get retrieves a rule by ID.
func (s *RuleStore) Get(_ context.Context, id string) (*domain.MappingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rule := s.rules[i]
	return &rule, nil
}

// List returns all rules in insertion order.
func (s *RuleStore) List(_ context.Context) ([]domain.MappingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.MappingRule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

// ListEnabled returns enabled rules by priority descending, insertion
// order on ties.
func (s *RuleStore) ListEnabled(_ context.Context) ([]domain.MappingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.MappingRule
	for _, rule := range s.rules {
		if rule.Enabled {
			out = append(out, rule)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out, nil
}
