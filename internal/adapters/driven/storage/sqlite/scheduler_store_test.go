package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

func TestSchedulerStore_SaveAndGetTask(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	scheduler := store.SchedulerStore()

	now := time.Now().UTC().Truncate(time.Second)
	task := &domain.ScheduledTask{
		ID:       domain.TaskIDDecryptBatch,
		Name:     "Decrypt daily batch",
		Interval: 24 * time.Hour,
		LastRun:  now,
		NextRun:  now.Add(24 * time.Hour),
		Enabled:  true,
	}
	require.NoError(t, scheduler.SaveTask(ctx, task))

	got, err := scheduler.GetTask(ctx, domain.TaskIDDecryptBatch)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.Name, got.Name)
	assert.Equal(t, 24*time.Hour, got.Interval)
	assert.True(t, got.LastRun.Equal(now))
	assert.True(t, got.Enabled)
	assert.True(t, got.LastSuccess.IsZero())
}

func TestSchedulerStore_GetMissingTaskReturnsNil(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := store.SchedulerStore().GetTask(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSchedulerStore_SaveTaskUpdates(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	scheduler := store.SchedulerStore()

	task := &domain.ScheduledTask{
		ID:       domain.TaskIDRuleSync,
		Name:     "Rule sync",
		Interval: 24 * time.Hour,
		Enabled:  true,
	}
	require.NoError(t, scheduler.SaveTask(ctx, task))

	task.LastError = "connection refused"
	task.Enabled = false
	require.NoError(t, scheduler.SaveTask(ctx, task))

	got, err := scheduler.GetTask(ctx, domain.TaskIDRuleSync)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "connection refused", got.LastError)
	assert.False(t, got.Enabled)

	tasks, err := scheduler.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSchedulerStore_HistoryAndPrune(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	scheduler := store.SchedulerStore()

	base := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, scheduler.RecordResult(ctx, &domain.TaskResult{
			TaskID:         domain.TaskIDRuleSync,
			StartedAt:      base.Add(time.Duration(i) * time.Hour),
			EndedAt:        base.Add(time.Duration(i)*time.Hour + time.Minute),
			Success:        i%2 == 0,
			ItemsProcessed: i,
		}))
	}

	history, err := scheduler.GetTaskHistory(ctx, domain.TaskIDRuleSync, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 4, history[0].ItemsProcessed) // most recent first
	assert.Equal(t, 3, history[1].ItemsProcessed)

	require.NoError(t, scheduler.PruneHistory(ctx, 2))

	history, err = scheduler.GetTaskHistory(ctx, domain.TaskIDRuleSync, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].ItemsProcessed)
	assert.Equal(t, 3, history[1].ItemsProcessed)
}

func TestSchedulerStore_DeleteTask(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	scheduler := store.SchedulerStore()

	task := &domain.ScheduledTask{ID: "t1", Name: "t1", Interval: time.Hour}
	require.NoError(t, scheduler.SaveTask(ctx, task))
	require.NoError(t, scheduler.DeleteTask(ctx, "t1"))

	got, err := scheduler.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
