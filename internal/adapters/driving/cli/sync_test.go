package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driving"
)

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type mockSyncOrchestrator struct {
	summary *driving.RunSummary
	err     error
	gotDate time.Time
}

func (m *mockSyncOrchestrator) Run(_ context.Context, date time.Time) (*driving.RunSummary, error) {
	m.gotDate = date
	if m.err != nil {
		return nil, m.err
	}
	if m.summary != nil {
		return m.summary, nil
	}
	return &driving.RunSummary{Date: date, Status: domain.StatusSuccess}, nil
}

func setupSyncTest(mock *mockSyncOrchestrator) func() {
	oldSync := syncOrchestrator
	syncOrchestrator = mock
	return func() {
		syncOrchestrator = oldSync
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [date]", syncCmd.Use)
}

func TestSyncCmd_ExecutesWithExplicitDate(t *testing.T) {
	mock := &mockSyncOrchestrator{}
	defer setupSyncTest(mock)()

	out, err := execute(t, "sync", "20240315")

	assert.NoError(t, err)
	assert.Contains(t, out, "Synchronising files for 20240315")
	assert.Equal(t, "20240315", mock.gotDate.Format(domain.CompactDate))
}

func TestSyncCmd_DefaultsToYesterday(t *testing.T) {
	mock := &mockSyncOrchestrator{}
	defer setupSyncTest(mock)()

	_, err := execute(t, "sync")

	require.NoError(t, err)
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(domain.CompactDate)
	assert.Equal(t, yesterday, mock.gotDate.Format(domain.CompactDate))
}

func TestSyncCmd_PrintsRuleResults(t *testing.T) {
	mock := &mockSyncOrchestrator{
		summary: &driving.RunSummary{
			Status:     domain.StatusPartial,
			TotalRules: 3,
			TotalFiles: 5,
			Synced:     3,
			Skipped:    1,
			Failed:     1,
			RuleResults: []driving.RuleResult{
				{RuleID: "daily-reports", Status: domain.StatusSuccess, Synced: 3},
				{RuleID: "weekly-summary", Gated: true},
				{RuleID: "adhoc-drop", Status: domain.StatusFail, Failed: 1, Message: "source tree missing"},
			},
		},
	}
	defer setupSyncTest(mock)()

	out, err := execute(t, "sync", "20240315")

	assert.NoError(t, err)
	assert.Contains(t, out, "daily-reports")
	assert.Contains(t, out, "not due")
	assert.Contains(t, out, "source tree missing")
	assert.Contains(t, out, "Run partial: 3 rules, 5 files, 3 synced, 1 skipped, 1 failed.")
}

func TestSyncCmd_AllRulesFailed(t *testing.T) {
	mock := &mockSyncOrchestrator{
		summary: &driving.RunSummary{Status: domain.StatusFail, TotalRules: 1},
	}
	defer setupSyncTest(mock)()

	_, err := execute(t, "sync", "20240315")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all evaluated rules failed")
}

func TestSyncCmd_InvalidDate(t *testing.T) {
	mock := &mockSyncOrchestrator{}
	defer setupSyncTest(mock)()

	_, err := execute(t, "sync", "not-a-date")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestSyncCmd_ServiceNotConfigured(t *testing.T) {
	oldSync := syncOrchestrator
	syncOrchestrator = nil
	defer func() {
		syncOrchestrator = oldSync
	}()

	_, err := execute(t, "sync")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync service not configured")
}

func TestSyncCmd_ServiceError(t *testing.T) {
	mock := &mockSyncOrchestrator{err: errors.New("store unreachable")}
	defer setupSyncTest(mock)()

	_, err := execute(t, "sync", "20240315")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
}
