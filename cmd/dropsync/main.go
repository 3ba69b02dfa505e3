package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/dropsync-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/dropsync-cli/internal/adapters/driven/crypto/gpg"
	"github.com/custodia-labs/dropsync-cli/internal/adapters/driven/progress"
	sftpremote "github.com/custodia-labs/dropsync-cli/internal/adapters/driven/remote/sftp"
	"github.com/custodia-labs/dropsync-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/dropsync-cli/internal/adapters/driven/watch"
	"github.com/custodia-labs/dropsync-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/core/services"
	"github.com/custodia-labs/dropsync-cli/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	store, err := sqlite.NewStore(config.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer store.Close()

	// Key rotation: files dated strictly before the cutover use the
	// legacy key. An unset cutover falls back to the built-in default.
	var cutover time.Time
	if raw := config.GetString("keys.cutover"); raw != "" {
		cutover, err = domain.NormaliseDate(raw)
		if err != nil {
			return fmt.Errorf("parsing keys.cutover: %w", err)
		}
	}
	schedule := domain.NewKeySchedule(cutover)

	currentKey := config.GetString("keys.current_file")
	passphrases := gpg.NewFilePassphraseSource(map[string]string{
		currentKey: config.GetString("keys.passphrase_file"),
	})
	keys := services.NewKeyResolver(schedule,
		config.GetString("keys.legacy_file"), currentKey, passphrases)

	broadcaster := progress.NewBroadcaster()
	decrypt := services.NewDecryptBatchProcessor(
		config.GetString("inbox.source_dir"),
		config.GetString("inbox.target_dir"),
		keys,
		gpg.NewDecryptor(),
		store.DecryptLogStore(),
		broadcaster,
	)

	remote := sftpremote.NewClient(sftpremote.Config{
		Host:             config.GetString("remote.host"),
		Port:             config.GetInt("remote.port"),
		Username:         config.GetString("remote.user"),
		Password:         config.GetString("remote.password"),
		KeyFile:          config.GetString("remote.key_file"),
		KnownHostsFile:   config.GetString("remote.known_hosts"),
		UploadsPerSecond: config.GetFloat("remote.uploads_per_second"),
	})
	defer func() {
		if err := remote.Disconnect(); err != nil {
			logger.Debug("disconnecting remote: %v", err)
		}
	}()

	matcher := services.NewRuleMatcher(
		store.FileTypeStore(), store.UploadStore(), store.TransferLogStore())
	conflicts := services.NewConflictResolver(remote)
	orchestrator := services.NewSyncOrchestrator(
		store.RuleStore(), store.TransferLogStore(), store.AdhocStore(),
		remote, matcher, conflicts)

	scheduler := services.NewScheduler(
		schedulerConfig(config), store.SchedulerStore(), decrypt, orchestrator)

	watcher := watch.New(
		config.GetString("inbox.source_dir"),
		config.GetDuration("inbox.settle"),
		func(ctx context.Context, date time.Time) {
			if _, err := decrypt.ProcessBatch(ctx, date); err != nil {
				logger.Warn("watched decrypt for %s: %v",
					date.Format(domain.CompactDate), err)
			}
		})

	cli.SetServices(cli.Services{
		Sync:         orchestrator,
		Decrypt:      decrypt,
		Scheduler:    scheduler,
		Rules:        store.RuleStore(),
		TransferLogs: store.TransferLogStore(),
		DecryptLogs:  store.DecryptLogStore(),
		Config:       config,
		Watcher:      watcher,
	})

	return cli.Execute()
}

// schedulerConfig builds the scheduler configuration from defaults
// overlaid with config file settings.
func schedulerConfig(config *file.ConfigStore) domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()

	if _, ok := config.Get("scheduler.enabled"); ok {
		cfg.Enabled = config.GetBool("scheduler.enabled")
	}
	if tz := config.GetString("scheduler.timezone"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			cfg.Timezone = loc
		} else {
			logger.Warn("invalid scheduler.timezone %q, using UTC", tz)
		}
	}
	if d := config.GetDuration("scheduler.decrypt_interval"); d > 0 {
		task := cfg.TaskConfigs[domain.TaskIDDecryptBatch]
		task.Interval = d
		cfg.TaskConfigs[domain.TaskIDDecryptBatch] = task
	}
	if d := config.GetDuration("scheduler.sync_interval"); d > 0 {
		task := cfg.TaskConfigs[domain.TaskIDRuleSync]
		task.Interval = d
		cfg.TaskConfigs[domain.TaskIDRuleSync] = task
	}
	return cfg
}
