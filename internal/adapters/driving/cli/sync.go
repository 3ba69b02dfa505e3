package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync [date]",
	Short: "Redistribute decrypted files to the remote store",
	Long: `Evaluates all enabled mapping rules against the target date and
publishes matching files to the partner-facing remote store.
The date defaults to yesterday (UTC); accepted forms include
YYYYMMDD and YYYY-MM-DD.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	date, err := targetDate(args)
	if err != nil {
		return err
	}

	cmd.Printf("Synchronising files for %s...\n", date.Format(domain.CompactDate))

	summary, err := syncOrchestrator.Run(context.Background(), date)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	for _, rule := range summary.RuleResults {
		if rule.Gated {
			cmd.Printf("  %-20s not due\n", rule.RuleID)
			continue
		}
		cmd.Printf("  %-20s %-8s %d synced, %d skipped, %d failed",
			rule.RuleID, rule.Status, rule.Synced, rule.Skipped, rule.Failed)
		if rule.Message != "" {
			cmd.Printf("  (%s)", rule.Message)
		}
		cmd.Println()
	}

	cmd.Printf("Run %s: %d rules, %d files, %d synced, %d skipped, %d failed.\n",
		summary.Status, summary.TotalRules, summary.TotalFiles,
		summary.Synced, summary.Skipped, summary.Failed)

	if summary.Status == domain.StatusFail {
		return errors.New("all evaluated rules failed")
	}
	return nil
}
