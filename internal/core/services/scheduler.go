package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driving"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler manages background task execution: the daily decrypt batch
// and the rule sync, both run for "yesterday" in the configured
// timezone. It is a pure core service with no external control API.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	decrypt driving.DecryptProcessor
	orch    driving.SyncOrchestrator

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	decrypt driving.DecryptProcessor,
	orch driving.SyncOrchestrator,
) *Scheduler {
	return &Scheduler{
		config:  config,
		store:   store,
		decrypt: decrypt,
		orch:    orch,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is
// called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		log.Printf("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDDecryptBatch); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDDecryptBatch, "Decrypt Batch", taskCfg); err != nil {
			return err
		}
	}
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDRuleSync); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDRuleSync, "Rule Sync", taskCfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	// Use a 1-minute ticker to check for due tasks
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due. Tasks run
// sequentially in a fixed order so decrypt output is visible to the
// sync that follows it.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		log.Printf("scheduler: failed to list tasks: %v", err)
		return
	}

	byID := make(map[string]*domain.ScheduledTask, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	now := time.Now()
	for _, id := range []string{domain.TaskIDDecryptBatch, domain.TaskIDRuleSync} {
		task, ok := byID[id]
		if !ok || !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task and records its result.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	defer s.wg.Done()

	result := &domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: time.Now(),
	}

	var err error
	switch task.ID {
	case domain.TaskIDDecryptBatch:
		result.ItemsProcessed, err = s.runDecryptBatch(ctx)
	case domain.TaskIDRuleSync:
		result.ItemsProcessed, err = s.runRuleSync(ctx)
	default:
		log.Printf("scheduler: unknown task ID: %s", task.ID)
		return
	}

	result.EndedAt = time.Now()
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		task.LastError = err.Error()
	} else {
		result.Success = true
		task.LastError = ""
		task.LastSuccess = result.EndedAt
	}

	task.LastRun = result.StartedAt
	task.NextRun = result.EndedAt.Add(task.Interval)

	if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
		log.Printf("scheduler: failed to save task %s: %v", task.ID, saveErr)
	}

	if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
		log.Printf("scheduler: failed to record result for %s: %v", task.ID, recordErr)
	}

	// Prune old history (keep last 100 results per task)
	if pruneErr := s.store.PruneHistory(ctx, 100); pruneErr != nil {
		log.Printf("scheduler: failed to prune history: %v", pruneErr)
	}
}

// targetDate is yesterday in the configured timezone: drops for a day
// are complete once the day has rolled over.
func (s *Scheduler) targetDate() time.Time {
	tz := s.config.Timezone
	if tz == nil {
		tz = time.UTC
	}
	now := time.Now().In(tz)
	y, m, d := now.AddDate(0, 0, -1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// runDecryptBatch decrypts yesterday's drop.
func (s *Scheduler) runDecryptBatch(ctx context.Context) (int, error) {
	if s.decrypt == nil {
		return 0, nil
	}
	result, err := s.decrypt.ProcessBatch(ctx, s.targetDate())
	if err != nil {
		return 0, err
	}
	return result.Processed, nil
}

// runRuleSync redistributes yesterday's files.
func (s *Scheduler) runRuleSync(ctx context.Context) (int, error) {
	if s.orch == nil {
		return 0, nil
	}
	summary, err := s.orch.Run(ctx, s.targetDate())
	if err != nil {
		return 0, err
	}
	return summary.TotalFiles, nil
}
