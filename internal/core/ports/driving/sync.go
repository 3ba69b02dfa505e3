package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

// SyncOrchestrator runs the rule-driven redistribution for a target date.
type SyncOrchestrator interface {
	// Run evaluates all enabled rules against the date and returns a
	// summary. Per-rule failures never abort the run; only unrecoverable
	// setup failures return an error.
	Run(ctx context.Context, date time.Time) (*RunSummary, error)
}

// RuleResult summarises the outcome of one evaluated rule.
type RuleResult struct {
	// RuleID identifies the rule.
	RuleID string

	// Description is the rule's label, for reporting.
	Description string

	// Gated is true when the period gate skipped the rule entirely
	// (no RuleLog was created).
	Gated bool

	// Status is the rule rollup. Unset for gated rules.
	Status domain.RunStatus

	// Synced, Skipped and Failed count candidate files.
	Synced  int
	Skipped int
	Failed  int

	// Message carries the failure reason for rules that errored at the
	// rule boundary.
	Message string
}

// RunSummary is the caller-visible outcome of one orchestrator run.
type RunSummary struct {
	// TaskLogID identifies the persisted task log for this run.
	TaskLogID string

	// Date is the target date the run evaluated.
	Date time.Time

	// Status is the task rollup across all rule logs.
	Status domain.RunStatus

	// TotalRules counts enabled rules considered (including gated).
	TotalRules int

	// TotalFiles counts candidate files across all rules.
	TotalFiles int

	// Synced, Skipped and Failed aggregate the file outcomes.
	Synced  int
	Skipped int
	Failed  int

	// RuleResults holds per-rule outcomes in evaluation order.
	RuleResults []RuleResult
}
