package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dropsync-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driving"
)

// stubDecrypt records the dates ProcessBatch was called with.
type stubDecrypt struct {
	mu     sync.Mutex
	dates  []time.Time
	result *driving.BatchResult
	err    error
}

func (s *stubDecrypt) ProcessBatch(_ context.Context, date time.Time) (*driving.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dates = append(s.dates, date)
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &driving.BatchResult{Date: date}, nil
}

// stubOrch records the dates Run was called with.
type stubOrch struct {
	mu      sync.Mutex
	dates   []time.Time
	summary *driving.RunSummary
	err     error
}

func (s *stubOrch) Run(_ context.Context, date time.Time) (*driving.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dates = append(s.dates, date)
	if s.err != nil {
		return nil, s.err
	}
	if s.summary != nil {
		return s.summary, nil
	}
	return &driving.RunSummary{Date: date, Status: domain.StatusSuccess}, nil
}

func newTestScheduler(store *memory.SchedulerStore, decrypt *stubDecrypt, orch *stubOrch) *Scheduler {
	return NewScheduler(domain.DefaultSchedulerConfig(), store, decrypt, orch)
}

func TestScheduler_InitialiseTasksCreatesBoth(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSchedulerStore()
	sched := newTestScheduler(store, &stubDecrypt{}, &stubOrch{})

	require.NoError(t, sched.initialiseTasks(ctx))

	decrypt, err := store.GetTask(ctx, domain.TaskIDDecryptBatch)
	require.NoError(t, err)
	require.NotNil(t, decrypt)
	assert.True(t, decrypt.Enabled)
	assert.Equal(t, 24*time.Hour, decrypt.Interval)

	syncTask, err := store.GetTask(ctx, domain.TaskIDRuleSync)
	require.NoError(t, err)
	require.NotNil(t, syncTask)
}

func TestScheduler_InitialiseTasksRespectsDisabled(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSchedulerStore()

	config := domain.DefaultSchedulerConfig()
	config.TaskConfigs[domain.TaskIDRuleSync] = domain.TaskConfig{Enabled: false}
	sched := NewScheduler(config, store, &stubDecrypt{}, &stubOrch{})

	require.NoError(t, sched.initialiseTasks(ctx))

	task, err := store.GetTask(ctx, domain.TaskIDRuleSync)
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestScheduler_EnsureTaskUpdatesInterval(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSchedulerStore()
	sched := newTestScheduler(store, &stubDecrypt{}, &stubOrch{})

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDDecryptBatch,
		Name:     "Decrypt Batch",
		Interval: time.Hour,
		Enabled:  true,
	}))

	cfg := domain.TaskConfig{Enabled: true, Interval: 24 * time.Hour}
	require.NoError(t, sched.ensureTask(ctx, domain.TaskIDDecryptBatch, "Decrypt Batch", cfg))

	task, err := store.GetTask(ctx, domain.TaskIDDecryptBatch)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, task.Interval)
	assert.False(t, task.NextRun.IsZero())
}

func TestScheduler_DueTasksRunDecryptBeforeSync(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSchedulerStore()
	decrypt := &stubDecrypt{}
	orch := &stubOrch{}
	sched := newTestScheduler(store, decrypt, orch)

	past := time.Now().Add(-time.Minute)
	// Saved sync first; execution order must still be decrypt, then sync
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID: domain.TaskIDRuleSync, Interval: 24 * time.Hour, Enabled: true, NextRun: past,
	}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID: domain.TaskIDDecryptBatch, Interval: 24 * time.Hour, Enabled: true, NextRun: past,
	}))

	sched.checkAndRunDueTasks(ctx)

	require.Len(t, decrypt.dates, 1)
	require.Len(t, orch.dates, 1)

	decryptTask, err := store.GetTask(ctx, domain.TaskIDDecryptBatch)
	require.NoError(t, err)
	syncTask, err := store.GetTask(ctx, domain.TaskIDRuleSync)
	require.NoError(t, err)
	assert.False(t, decryptTask.LastRun.After(syncTask.LastRun))
}

func TestScheduler_NotDueTasksSkipped(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSchedulerStore()
	decrypt := &stubDecrypt{}
	sched := newTestScheduler(store, decrypt, &stubOrch{})

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDDecryptBatch,
		Interval: 24 * time.Hour,
		Enabled:  true,
		NextRun:  time.Now().Add(time.Hour),
	}))

	sched.checkAndRunDueTasks(ctx)
	assert.Empty(t, decrypt.dates)
}

func TestScheduler_DisabledTasksSkipped(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSchedulerStore()
	decrypt := &stubDecrypt{}
	sched := newTestScheduler(store, decrypt, &stubOrch{})

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDDecryptBatch,
		Interval: 24 * time.Hour,
		Enabled:  false,
		NextRun:  time.Now().Add(-time.Minute),
	}))

	sched.checkAndRunDueTasks(ctx)
	assert.Empty(t, decrypt.dates)
}

func TestScheduler_TargetDateIsYesterdayMidnight(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSchedulerStore()
	decrypt := &stubDecrypt{}
	sched := newTestScheduler(store, decrypt, &stubOrch{})

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID: domain.TaskIDDecryptBatch, Interval: 24 * time.Hour, Enabled: true,
		NextRun: time.Now().Add(-time.Minute),
	}))

	sched.checkAndRunDueTasks(ctx)

	require.Len(t, decrypt.dates, 1)
	got := decrypt.dates[0]

	y, m, d := time.Now().UTC().AddDate(0, 0, -1).Date()
	assert.Equal(t, time.Date(y, m, d, 0, 0, 0, 0, time.UTC), got)
}

func TestScheduler_RecordsFailureAndReschedules(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSchedulerStore()
	decrypt := &stubDecrypt{err: errors.New("source tree missing")}
	sched := newTestScheduler(store, decrypt, &stubOrch{})

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID: domain.TaskIDDecryptBatch, Interval: 24 * time.Hour, Enabled: true,
		NextRun: time.Now().Add(-time.Minute),
	}))

	sched.checkAndRunDueTasks(ctx)

	task, err := store.GetTask(ctx, domain.TaskIDDecryptBatch)
	require.NoError(t, err)
	assert.Equal(t, "source tree missing", task.LastError)
	assert.True(t, task.NextRun.After(time.Now()))
	assert.True(t, task.LastSuccess.IsZero())

	history, err := store.GetTaskHistory(ctx, domain.TaskIDDecryptBatch, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.Equal(t, "source tree missing", history[0].Error)
}

func TestScheduler_RecordsSuccessResult(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSchedulerStore()
	decrypt := &stubDecrypt{result: &driving.BatchResult{Total: 4, Processed: 4, Decrypted: 3, Copied: 1}}
	sched := newTestScheduler(store, decrypt, &stubOrch{})

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID: domain.TaskIDDecryptBatch, Interval: 24 * time.Hour, Enabled: true,
		NextRun: time.Now().Add(-time.Minute),
	}))

	sched.checkAndRunDueTasks(ctx)

	task, err := store.GetTask(ctx, domain.TaskIDDecryptBatch)
	require.NoError(t, err)
	assert.Empty(t, task.LastError)
	assert.False(t, task.LastSuccess.IsZero())

	history, err := store.GetTaskHistory(ctx, domain.TaskIDDecryptBatch, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Equal(t, 4, history[0].ItemsProcessed)
}

func TestScheduler_StartStop(t *testing.T) {
	store := memory.NewSchedulerStore()
	sched := newTestScheduler(store, &stubDecrypt{}, &stubOrch{})

	done := make(chan error, 1)
	go func() {
		done <- sched.Start(context.Background())
	}()

	// Give the loop a moment to come up, then stop it
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sched.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
