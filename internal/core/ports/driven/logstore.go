package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

// TransferLogStore persists the three-level transfer audit hierarchy.
// All three levels are append-only; only the owning run updates its own
// TaskLog end time.
type TransferLogStore interface {
	// CreateTaskLog inserts a new task log row.
	CreateTaskLog(ctx context.Context, log *domain.TaskLog) error

	// FinishTaskLog sets the final status, end time and duration of a
	// task log owned by the current run.
	FinishTaskLog(ctx context.Context, log *domain.TaskLog) error

	// CreateRuleLog inserts a rule log owned by a task log.
	CreateRuleLog(ctx context.Context, log *domain.RuleLog) error

	// FinishRuleLog sets the final status, counts and end time of a rule
	// log owned by the current run.
	FinishRuleLog(ctx context.Context, log *domain.RuleLog) error

	// CreateFileLog inserts a file log owned by a rule log.
	CreateFileLog(ctx context.Context, log *domain.FileLog) error

	// HasSuccessfulTransfer reports whether a file already appears in a
	// successful FileLog for the rule on the given date. Used by
	// filetype matching to avoid re-offering already-published uploads.
	HasSuccessfulTransfer(ctx context.Context, ruleID, filename string, date time.Time) (bool, error)

	// GetTaskLog retrieves a task log by ID.
	GetTaskLog(ctx context.Context, id string) (*domain.TaskLog, error)

	// ListTaskLogs returns recent task logs, most recent first.
	ListTaskLogs(ctx context.Context, limit int) ([]domain.TaskLog, error)
}

// DecryptLogStore persists day-level decrypt batch outcomes.
type DecryptLogStore interface {
	// Record inserts one decrypt log row.
	Record(ctx context.Context, log *domain.DecryptLog) error

	// ListByDate returns decrypt logs for a date, most recent first.
	ListByDate(ctx context.Context, date time.Time) ([]domain.DecryptLog, error)

	// Latest returns the most recent decrypt log, or ErrNotFound.
	Latest(ctx context.Context) (*domain.DecryptLog, error)
}
