package services

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driving"
	"github.com/custodia-labs/dropsync-cli/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator iterates enabled rules in priority order, applies the
// period gate, drives matching, conflict resolution and transfer, and
// aggregates outcomes into the task/rule/file log hierarchy.
//
// Rules and files are processed strictly sequentially: the remote store
// is a single stateful session shared across the whole run.
type SyncOrchestrator struct {
	rules     driven.RuleStore
	logs      driven.TransferLogStore
	adhoc     driven.AdhocStore
	remote    driven.RemoteStore
	matcher   *RuleMatcher
	conflicts *ConflictResolver

	mu      sync.Mutex
	running bool
}

// NewSyncOrchestrator creates a sync orchestrator.
func NewSyncOrchestrator(
	rules driven.RuleStore,
	logs driven.TransferLogStore,
	adhoc driven.AdhocStore,
	remote driven.RemoteStore,
	matcher *RuleMatcher,
	conflicts *ConflictResolver,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		rules:     rules,
		logs:      logs,
		adhoc:     adhoc,
		remote:    remote,
		matcher:   matcher,
		conflicts: conflicts,
	}
}

// Run evaluates all enabled rules against the date. Per-rule failures are
// caught at the rule boundary and never abort the run; only setup
// failures (log store, rule store) return an error.
func (o *SyncOrchestrator) Run(ctx context.Context, date time.Time) (*driving.RunSummary, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, domain.ErrRunInProgress
	}
	o.running = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	logger.Section(fmt.Sprintf("sync run %s", date.Format(domain.CompactDate)))

	taskLog := &domain.TaskLog{
		ID:        uuid.NewString(),
		Date:      date,
		StartTime: time.Now().UTC(),
	}
	if err := o.logs.CreateTaskLog(ctx, taskLog); err != nil {
		return nil, fmt.Errorf("creating task log: %w", err)
	}

	rules, err := o.rules.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	// Priority descending; stable sort preserves insertion order on ties.
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})

	// Probe the shared session once up front. A dead session is not
	// fatal here: per-operation failures fall out as per-file errors.
	if err := o.remote.EnsureConnection(ctx); err != nil {
		logger.Warn("remote session unavailable at run start: %v", err)
	}

	summary := &driving.RunSummary{
		TaskLogID:  taskLog.ID,
		Date:       date,
		TotalRules: len(rules),
	}

	var ruleStatuses []domain.RunStatus
	for _, rule := range rules {
		if !rule.Schedule.Due(date) {
			logger.Debug("rule %s gated out (%s)", rule.ID, rule.Schedule.Period)
			summary.RuleResults = append(summary.RuleResults, driving.RuleResult{
				RuleID:      rule.ID,
				Description: rule.Description,
				Gated:       true,
			})
			continue
		}

		result := o.processRule(ctx, taskLog.ID, rule, date)
		summary.RuleResults = append(summary.RuleResults, result)
		summary.TotalFiles += result.Synced + result.Skipped + result.Failed
		summary.Synced += result.Synced
		summary.Skipped += result.Skipped
		summary.Failed += result.Failed
		ruleStatuses = append(ruleStatuses, result.Status)
	}

	taskLog.Status = domain.RollupTask(ruleStatuses)
	taskLog.EndTime = time.Now().UTC()
	taskLog.Duration = taskLog.EndTime.Sub(taskLog.StartTime)
	if err := o.logs.FinishTaskLog(ctx, taskLog); err != nil {
		logger.Warn("finishing task log: %v", err)
	}
	summary.Status = taskLog.Status

	logger.Info("run complete: %s, %d rules, %d synced, %d skipped, %d failed",
		summary.Status, summary.TotalRules, summary.Synced, summary.Skipped, summary.Failed)
	return summary, nil
}

// processRule evaluates one rule inside its own error boundary. Any
// failure marks the rule log fail and the run moves on.
func (o *SyncOrchestrator) processRule(
	ctx context.Context,
	taskLogID string,
	rule domain.MappingRule,
	date time.Time,
) driving.RuleResult {
	result := driving.RuleResult{RuleID: rule.ID, Description: rule.Description}

	ruleLog := &domain.RuleLog{
		ID:          uuid.NewString(),
		TaskLogID:   taskLogID,
		RuleID:      rule.ID,
		Description: rule.Description,
		StartTime:   time.Now().UTC(),
	}
	if err := o.logs.CreateRuleLog(ctx, ruleLog); err != nil {
		result.Status = domain.StatusFail
		result.Message = fmt.Sprintf("creating rule log: %v", err)
		return result
	}

	candidates, err := o.matcher.ResolveCandidates(ctx, rule, date)
	if err != nil {
		result.Status = domain.StatusFail
		result.Message = err.Error()
		o.finishRuleLog(ctx, ruleLog, result)
		return result
	}

	adhoc := rule.Schedule.Period == domain.PeriodAdhoc
	for _, candidate := range candidates {
		if adhoc {
			synced, err := o.adhoc.IsSynced(ctx, rule.ID, candidate.Filename)
			if err != nil {
				result.Failed++
				o.fileLog(ctx, ruleLog, rule, candidate, "", domain.FileStatusFail,
					fmt.Sprintf("checking adhoc record: %v", err))
				continue
			}
			if synced {
				// Already synchronised once; permanent dedup.
				result.Skipped++
				continue
			}
		}
		o.processFile(ctx, ruleLog, rule, date, candidate, adhoc, &result)
	}

	result.Status = domain.RollupRule(result.Synced, result.Failed)
	o.finishRuleLog(ctx, ruleLog, result)
	return result
}

// processFile resolves one candidate's destination, applies the conflict
// policy, and performs the transfer with the rule's bounded retry.
func (o *SyncOrchestrator) processFile(
	ctx context.Context,
	ruleLog *domain.RuleLog,
	rule domain.MappingRule,
	date time.Time,
	candidate domain.FileDescriptor,
	adhoc bool,
	result *driving.RuleResult,
) {
	destPath := o.matcher.ResolveDestination(rule, date, candidate)

	resolution, err := o.conflicts.Resolve(ctx, rule.Destination.Conflict, destPath)
	if err != nil {
		result.Failed++
		o.fileLog(ctx, ruleLog, rule, candidate, destPath, domain.FileStatusFail, err.Error())
		return
	}

	if resolution.Action == ActionSkip {
		result.Skipped++
		o.fileLog(ctx, ruleLog, rule, candidate, resolution.FinalPath, domain.FileStatusSkipped, resolution.Reason)
		return
	}

	if err := o.transfer(ctx, rule.Retry, candidate.FilePath, resolution.FinalPath); err != nil {
		result.Failed++
		o.fileLog(ctx, ruleLog, rule, candidate, resolution.FinalPath, domain.FileStatusFail, err.Error())
		return
	}

	result.Synced++
	o.fileLog(ctx, ruleLog, rule, candidate, resolution.FinalPath, domain.FileStatusSuccess, resolution.Reason)

	if adhoc {
		record := domain.AdhocSyncRecord{
			RuleID:   rule.ID,
			Filename: candidate.Filename,
			Status:   domain.AdhocStatusSynced,
			SyncTime: time.Now().UTC(),
		}
		if err := o.adhoc.MarkSynced(ctx, record); err != nil {
			logger.Warn("recording adhoc sync for %s: %v", candidate.Filename, err)
		}
	}
}

// transfer uploads one file, honouring the rule's retry policy: Attempts
// counts retries beyond the first try, Delay separates attempts. The
// destination directory is created best-effort first.
func (o *SyncOrchestrator) transfer(
	ctx context.Context,
	retry domain.RetryPolicy,
	localPath, remotePath string,
) error {
	if err := o.remote.Mkdir(ctx, path.Dir(remotePath), true); err != nil {
		logger.Debug("mkdir %s: %v", path.Dir(remotePath), err)
	}

	var err error
	for attempt := 0; attempt <= retry.Attempts; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying transfer of %s (attempt %d of %d)", localPath, attempt+1, retry.Attempts+1)
			if retry.Delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retry.Delay):
				}
			}
		}
		if err = o.remote.Upload(ctx, localPath, remotePath); err == nil {
			return nil
		}
	}
	return fmt.Errorf("uploading %s: %w", remotePath, err)
}

// fileLog appends one file-level audit row.
func (o *SyncOrchestrator) fileLog(
	ctx context.Context,
	ruleLog *domain.RuleLog,
	rule domain.MappingRule,
	candidate domain.FileDescriptor,
	targetPath string,
	status domain.FileStatus,
	message string,
) {
	log := &domain.FileLog{
		ID:            uuid.NewString(),
		RuleLogID:     ruleLog.ID,
		RuleID:        rule.ID,
		Date:          candidate.Date,
		Filename:      candidate.Filename,
		SourcePath:    candidate.FilePath,
		TargetPath:    targetPath,
		Status:        status,
		Message:       message,
		TransferredAt: time.Now().UTC(),
	}
	if err := o.logs.CreateFileLog(ctx, log); err != nil {
		logger.Warn("creating file log for %s: %v", candidate.Filename, err)
	}
}

// finishRuleLog copies the result counts onto the rule log and persists
// its final state.
func (o *SyncOrchestrator) finishRuleLog(
	ctx context.Context,
	ruleLog *domain.RuleLog,
	result driving.RuleResult,
) {
	ruleLog.Status = result.Status
	ruleLog.SuccessCount = result.Synced
	ruleLog.FailedCount = result.Failed
	ruleLog.SkippedCount = result.Skipped
	ruleLog.Message = result.Message
	ruleLog.EndTime = time.Now().UTC()
	if err := o.logs.FinishRuleLog(ctx, ruleLog); err != nil {
		logger.Warn("finishing rule log %s: %v", ruleLog.ID, err)
	}
}
