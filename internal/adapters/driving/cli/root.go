// Package cli provides the dropsync command line interface.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/dropsync-cli/internal/core/ports/driving"
	"github.com/custodia-labs/dropsync-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired in by the composition root. Tests swap these for mocks.
var (
	syncOrchestrator driving.SyncOrchestrator
	decryptProcessor driving.DecryptProcessor
	schedulerService driving.Scheduler
	ruleStore        driven.RuleStore
	transferLogStore driven.TransferLogStore
	decryptLogStore  driven.DecryptLogStore
	configStore      driven.ConfigStore
	inboxWatcher     InboxWatcher
)

// InboxWatcher is the watch command's view of the inbox watcher.
type InboxWatcher interface {
	Start(ctx context.Context) error
	Stop()
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "dropsync",
	Short: "Decrypt dated file drops and redistribute them over SFTP",
	Long: `dropsync runs the daily file redistribution pipeline.

Encrypted drops land in a dated inbox, are decrypted into a dated
target tree, and are then published to the partner-facing remote store
according to configured mapping rules.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose output")
}

// Services bundles everything the commands need.
type Services struct {
	Sync         driving.SyncOrchestrator
	Decrypt      driving.DecryptProcessor
	Scheduler    driving.Scheduler
	Rules        driven.RuleStore
	TransferLogs driven.TransferLogStore
	DecryptLogs  driven.DecryptLogStore
	Config       driven.ConfigStore
	Watcher      InboxWatcher
}

// SetServices installs the wired services. Call before Execute.
func SetServices(s Services) {
	syncOrchestrator = s.Sync
	decryptProcessor = s.Decrypt
	schedulerService = s.Scheduler
	ruleStore = s.Rules
	transferLogStore = s.TransferLogs
	decryptLogStore = s.DecryptLogs
	configStore = s.Config
	inboxWatcher = s.Watcher
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// targetDate resolves the optional date argument. Absent, the pipeline
// default of yesterday (UTC) applies.
func targetDate(args []string) (time.Time, error) {
	if len(args) == 0 {
		y, m, d := time.Now().UTC().AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	date, err := domain.NormaliseDate(args[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", args[0], err)
	}
	return date, nil
}
