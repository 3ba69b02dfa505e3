package domain

import "time"

// RunStatus is the rollup status of a task or rule log.
type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusPartial RunStatus = "partial"
	StatusFail    RunStatus = "fail"
)

// FileStatus is the outcome recorded for one candidate file.
// Skipped is distinct from failed: a deliberate skip under the skip
// conflict policy does not poison the rule rollup.
type FileStatus string

const (
	FileStatusSuccess FileStatus = "success"
	FileStatusFail    FileStatus = "fail"
	FileStatusSkipped FileStatus = "skipped"
)

// TaskLog is the top level of the audit hierarchy: one row per
// orchestrator run, owning zero or more RuleLogs.
type TaskLog struct {
	ID        string        `json:"id"`
	Date      time.Time     `json:"date"`
	Status    RunStatus     `json:"status"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
}

// RuleLog records one evaluated, non-skipped rule within a run.
type RuleLog struct {
	ID           string    `json:"id"`
	TaskLogID    string    `json:"task_log_id"`
	RuleID       string    `json:"rule_id"`
	Description  string    `json:"description"`
	Status       RunStatus `json:"status"`
	SuccessCount int       `json:"success_count"`
	FailedCount  int       `json:"failed_count"`
	SkippedCount int       `json:"skipped_count"`
	Message      string    `json:"message,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// FileLog records one candidate file a rule considered.
type FileLog struct {
	ID          string     `json:"id"`
	RuleLogID   string     `json:"rule_log_id"`
	RuleID      string     `json:"rule_id"`
	Date        time.Time  `json:"date"`
	Filename    string     `json:"filename"`
	SourcePath  string     `json:"source_path"`
	TargetPath  string     `json:"target_path"`
	Status      FileStatus `json:"status"`
	Message     string     `json:"message,omitempty"`
	TransferredAt time.Time `json:"transferred_at"`
}

// RollupRule computes a rule's status from its file counts.
// Skips are neutral: a rule whose files were all skipped is a success.
func RollupRule(successCount, failedCount int) RunStatus {
	switch {
	case failedCount > 0 && successCount > 0:
		return StatusPartial
	case failedCount > 0:
		return StatusFail
	default:
		return StatusSuccess
	}
}

// RollupTask computes a task's status from its rule statuses using the
// same partial/fail rule aggregated across rules.
func RollupTask(ruleStatuses []RunStatus) RunStatus {
	var ok, bad int
	for _, s := range ruleStatuses {
		switch s {
		case StatusSuccess:
			ok++
		case StatusPartial:
			// A partial rule contributes to both sides.
			ok++
			bad++
		case StatusFail:
			bad++
		}
	}
	switch {
	case bad > 0 && ok > 0:
		return StatusPartial
	case bad > 0:
		return StatusFail
	default:
		return StatusSuccess
	}
}

// DecryptLog is the day-level outcome of one decrypt batch run.
type DecryptLog struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Status    RunStatus `json:"status"`
	Total     int       `json:"total"`
	Decrypted int       `json:"decrypted"`
	Copied    int       `json:"copied"`
	Failed    int       `json:"failed"`
	Message   string    `json:"message,omitempty"`
	RunAt     time.Time `json:"run_at"`
}
