package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
)

// Ensure the stores implement their interfaces.
var (
	_ driven.TransferLogStore = (*TransferLogStore)(nil)
	_ driven.DecryptLogStore  = (*DecryptLogStore)(nil)
)

// TransferLogStore is an in-memory implementation of
// driven.TransferLogStore.
type TransferLogStore struct {
	mu       sync.RWMutex
	taskLogs []domain.TaskLog
	ruleLogs []domain.RuleLog
	fileLogs []domain.FileLog
}

// NewTransferLogStore creates a new in-memory transfer log store.
func NewTransferLogStore() *TransferLogStore {
	return &TransferLogStore{}
}

// CreateTaskLog inserts a new task log row.
func (s *TransferLogStore) CreateTaskLog(_ context.Context, log *domain.TaskLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskLogs = append(s.taskLogs, *log)
	return nil
}

// FinishTaskLog sets the final state of a task log.
func (s *TransferLogStore) FinishTaskLog(_ context.Context, log *domain.TaskLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.taskLogs {
		if s.taskLogs[i].ID == log.ID {
			s.taskLogs[i] = *log
			return nil
		}
	}
	return domain.ErrNotFound
}

// CreateRuleLog inserts a rule log.
func (s *TransferLogStore) CreateRuleLog(_ context.Context, log *domain.RuleLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ruleLogs = append(s.ruleLogs, *log)
	return nil
}

// FinishRuleLog sets the final state of a rule log.
func (s *TransferLogStore) FinishRuleLog(_ context.Context, log *domain.RuleLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ruleLogs {
		if s.ruleLogs[i].ID == log.ID {
			s.ruleLogs[i] = *log
			return nil
		}
	}
	return domain.ErrNotFound
}

// CreateFileLog inserts a file log.
func (s *TransferLogStore) CreateFileLog(_ context.Context, log *domain.FileLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileLogs = append(s.fileLogs, *log)
	return nil
}

// HasSuccessfulTransfer reports whether a successful file log exists for
// the rule, filename and date.
func (s *TransferLogStore) HasSuccessfulTransfer(
	_ context.Context,
	ruleID, filename string,
	date time.Time,
) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day := date.Format(domain.CompactDate)
	for i := range s.fileLogs {
		l := &s.fileLogs[i]
		if l.RuleID == ruleID && l.Filename == filename &&
			l.Status == domain.FileStatusSuccess &&
			l.Date.Format(domain.CompactDate) == day {
			return true, nil
		}
	}
	return false, nil
}

// GetTaskLog retrieves a task log by ID.
func (s *TransferLogStore) GetTaskLog(_ context.Context, id string) (*domain.TaskLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.taskLogs {
		if s.taskLogs[i].ID == id {
			log := s.taskLogs[i]
			return &log, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListTaskLogs returns recent task logs, most recent first.
func (s *TransferLogStore) ListTaskLogs(_ context.Context, limit int) ([]domain.TaskLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TaskLog, len(s.taskLogs))
	copy(out, s.taskLogs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RuleLogs returns a copy of all rule logs. Test helper.
func (s *TransferLogStore) RuleLogs() []domain.RuleLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RuleLog, len(s.ruleLogs))
	copy(out, s.ruleLogs)
	return out
}

// FileLogs returns a copy of all file logs. Test helper.
func (s *TransferLogStore) FileLogs() []domain.FileLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FileLog, len(s.fileLogs))
	copy(out, s.fileLogs)
	return out
}

// DecryptLogStore is an in-memory implementation of
// driven.DecryptLogStore.
type DecryptLogStore struct {
	mu   sync.RWMutex
	logs []domain.DecryptLog
}

// NewDecryptLogStore creates a new in-memory decrypt log store.
func NewDecryptLogStore() *DecryptLogStore {
	return &DecryptLogStore{}
}

// Record inserts one decrypt log row.
func (s *DecryptLogStore) Record(_ context.Context, log *domain.DecryptLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *log)
	return nil
}

// ListByDate returns decrypt logs for a date, most recent first.
func (s *DecryptLogStore) ListByDate(_ context.Context, date time.Time) ([]domain.DecryptLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day := date.Format(domain.CompactDate)
	var out []domain.DecryptLog
	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].Date.Format(domain.CompactDate) == day {
			out = append(out, s.logs[i])
		}
	}
	return out, nil
}

// Latest returns the most recent decrypt log.
func (s *DecryptLogStore) Latest(_ context.Context) (*domain.DecryptLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.logs) == 0 {
		return nil, domain.ErrNotFound
	}
	log := s.logs[len(s.logs)-1]
	return &log, nil
}
