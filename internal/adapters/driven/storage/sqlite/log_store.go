package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
)

// transferLogStore implements driven.TransferLogStore.
type transferLogStore struct {
	store *Store
}

var _ driven.TransferLogStore = (*transferLogStore)(nil)

// CreateTaskLog inserts a new task log row.
func (s *transferLogStore) CreateTaskLog(ctx context.Context, log *domain.TaskLog) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO task_logs (id, date, status, start_time, end_time, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, log.ID, log.Date.Format(domain.CompactDate), string(log.Status),
		log.StartTime.Format(time.RFC3339), formatNullableTime(log.EndTime),
		log.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("saving task log: %w", err)
	}
	return nil
}

// FinishTaskLog sets the final status, end time and duration of a task log.
func (s *transferLogStore) FinishTaskLog(ctx context.Context, log *domain.TaskLog) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE task_logs SET status = ?, end_time = ?, duration_ms = ?
		WHERE id = ?
	`, string(log.Status), formatNullableTime(log.EndTime),
		log.Duration.Milliseconds(), log.ID)
	if err != nil {
		return fmt.Errorf("updating task log: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateRuleLog inserts a rule log owned by a task log.
func (s *transferLogStore) CreateRuleLog(ctx context.Context, log *domain.RuleLog) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO rule_logs (id, task_log_id, rule_id, description, status,
			success_count, failed_count, skipped_count, message, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.TaskLogID, log.RuleID, log.Description, string(log.Status),
		log.SuccessCount, log.FailedCount, log.SkippedCount, nullString(log.Message),
		log.StartTime.Format(time.RFC3339), formatNullableTime(log.EndTime))
	if err != nil {
		return fmt.Errorf("saving rule log: %w", err)
	}
	return nil
}

// FinishRuleLog sets the final status, counts and end time of a rule log.
func (s *transferLogStore) FinishRuleLog(ctx context.Context, log *domain.RuleLog) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE rule_logs SET status = ?, success_count = ?, failed_count = ?,
			skipped_count = ?, message = ?, end_time = ?
		WHERE id = ?
	`, string(log.Status), log.SuccessCount, log.FailedCount, log.SkippedCount,
		nullString(log.Message), formatNullableTime(log.EndTime), log.ID)
	if err != nil {
		return fmt.Errorf("updating rule log: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateFileLog inserts a file log owned by a rule log.
func (s *transferLogStore) CreateFileLog(ctx context.Context, log *domain.FileLog) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO file_logs (id, rule_log_id, rule_id, date, filename,
			source_path, target_path, status, message, transferred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.RuleLogID, log.RuleID, log.Date.Format(domain.CompactDate),
		log.Filename, log.SourcePath, log.TargetPath, string(log.Status),
		nullString(log.Message), log.TransferredAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving file log: %w", err)
	}
	return nil
}

// HasSuccessfulTransfer reports whether a successful file log exists for
// the rule, filename and date.
func (s *transferLogStore) HasSuccessfulTransfer(
	ctx context.Context,
	ruleID, filename string,
	date time.Time,
) (bool, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM file_logs
		WHERE rule_id = ? AND filename = ? AND date = ? AND status = ?
	`, ruleID, filename, date.Format(domain.CompactDate),
		string(domain.FileStatusSuccess)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking file logs: %w", err)
	}
	return count > 0, nil
}

// GetTaskLog retrieves a task log by ID.
func (s *transferLogStore) GetTaskLog(ctx context.Context, id string) (*domain.TaskLog, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, date, status, start_time, end_time, duration_ms
		FROM task_logs WHERE id = ?
	`, id)

	log, err := scanTaskLog(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return log, nil
}

// ListTaskLogs returns recent task logs, most recent first.
func (s *transferLogStore) ListTaskLogs(ctx context.Context, limit int) ([]domain.TaskLog, error) {
	query := `
		SELECT id, date, status, start_time, end_time, duration_ms
		FROM task_logs ORDER BY start_time DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying task logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.TaskLog //nolint:prealloc // size unknown from query
	for rows.Next() {
		log, err := scanTaskLog(rows.Scan)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task logs: %w", err)
	}

	return logs, nil
}

// scanTaskLog scans one task log row given a Scan function.
func scanTaskLog(scan func(dest ...any) error) (*domain.TaskLog, error) {
	var log domain.TaskLog
	var date, status, startTime string
	var endTime sql.NullString
	var durationMs int64

	if err := scan(&log.ID, &date, &status, &startTime, &endTime, &durationMs); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task log: %w", err)
	}

	log.Status = domain.RunStatus(status)
	log.Duration = time.Duration(durationMs) * time.Millisecond
	if t, err := time.Parse(domain.CompactDate, date); err == nil {
		log.Date = t
	}
	if t, err := time.Parse(time.RFC3339, startTime); err == nil {
		log.StartTime = t
	}
	log.EndTime = parseNullableTime(endTime)

	return &log, nil
}

// decryptLogStore implements driven.DecryptLogStore.
type decryptLogStore struct {
	store *Store
}

var _ driven.DecryptLogStore = (*decryptLogStore)(nil)

const decryptLogColumns = `id, date, status, total, decrypted, copied, failed, message, run_at`

// Record inserts one decrypt log row.
func (s *decryptLogStore) Record(ctx context.Context, log *domain.DecryptLog) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO decrypt_logs (`+decryptLogColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.Date.Format(domain.CompactDate), string(log.Status),
		log.Total, log.Decrypted, log.Copied, log.Failed,
		nullString(log.Message), log.RunAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving decrypt log: %w", err)
	}
	return nil
}

// ListByDate returns decrypt logs for a date, most recent first.
func (s *decryptLogStore) ListByDate(ctx context.Context, date time.Time) ([]domain.DecryptLog, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+decryptLogColumns+` FROM decrypt_logs
		WHERE date = ? ORDER BY run_at DESC
	`, date.Format(domain.CompactDate))
	if err != nil {
		return nil, fmt.Errorf("querying decrypt logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.DecryptLog //nolint:prealloc // size unknown from query
	for rows.Next() {
		log, err := scanDecryptLog(rows.Scan)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decrypt logs: %w", err)
	}

	return logs, nil
}

// Latest returns the most recent decrypt log.
func (s *decryptLogStore) Latest(ctx context.Context) (*domain.DecryptLog, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+decryptLogColumns+` FROM decrypt_logs
		ORDER BY run_at DESC LIMIT 1
	`)

	log, err := scanDecryptLog(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return log, nil
}

// scanDecryptLog scans one decrypt log row given a Scan function.
func scanDecryptLog(scan func(dest ...any) error) (*domain.DecryptLog, error) {
	var log domain.DecryptLog
	var date, status, runAt string
	var message sql.NullString

	if err := scan(&log.ID, &date, &status, &log.Total, &log.Decrypted,
		&log.Copied, &log.Failed, &message, &runAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning decrypt log: %w", err)
	}

	log.Status = domain.RunStatus(status)
	log.Message = message.String
	if t, err := time.Parse(domain.CompactDate, date); err == nil {
		log.Date = t
	}
	if t, err := time.Parse(time.RFC3339, runAt); err == nil {
		log.RunAt = t
	}

	return &log, nil
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// formatNullableTime renders a zero time as SQL NULL.
func formatNullableTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

// parseNullableTime parses an RFC3339 string, returning the zero time
// for NULL or unparseable values.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
