package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

var decryptCheck bool

var decryptCmd = &cobra.Command{
	Use:   "decrypt [date]",
	Short: "Decrypt the dated drop into the target tree",
	Long: `Discovers all source files carrying the target date, decrypts
encrypted ones and copies the rest into the dated target directory.
The date defaults to yesterday (UTC).

With --check, no processing happens: the command exits zero only if the
most recent recorded batch for the date succeeded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecrypt,
}

func init() {
	decryptCmd.Flags().BoolVar(&decryptCheck, "check", false,
		"verify the recorded batch outcome instead of processing")
	rootCmd.AddCommand(decryptCmd)
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	date, err := targetDate(args)
	if err != nil {
		return err
	}

	if decryptCheck {
		return runDecryptCheck(cmd, date)
	}

	if decryptProcessor == nil {
		return errors.New("decrypt service not configured")
	}

	cmd.Printf("Decrypting batch for %s...\n", date.Format(domain.CompactDate))

	result, err := decryptProcessor.ProcessBatch(context.Background(), date)
	if err != nil {
		return fmt.Errorf("decrypt failed: %w", err)
	}

	cmd.Printf("Batch complete: %d files, %d decrypted, %d copied, %d failed.\n",
		result.Total, result.Decrypted, result.Copied, result.Failed)
	for _, msg := range result.Errors {
		cmd.Printf("  %s\n", msg)
	}

	if !result.Success() {
		return fmt.Errorf("%d of %d files failed", result.Failed, result.Total)
	}
	return nil
}

// runDecryptCheck reports the recorded outcome of the date's most recent
// batch without touching any files.
func runDecryptCheck(cmd *cobra.Command, date time.Time) error {
	if decryptLogStore == nil {
		return errors.New("decrypt log store not configured")
	}

	day := date.Format(domain.CompactDate)
	logs, err := decryptLogStore.ListByDate(context.Background(), date)
	if err != nil {
		return fmt.Errorf("reading decrypt logs: %w", err)
	}
	if len(logs) == 0 {
		return fmt.Errorf("no decrypt batch recorded for %s", day)
	}

	latest := logs[0]
	cmd.Printf("Batch %s: %s (%d files, %d decrypted, %d copied, %d failed)\n",
		day, latest.Status, latest.Total, latest.Decrypted, latest.Copied, latest.Failed)

	if latest.Status != domain.StatusSuccess {
		return fmt.Errorf("batch for %s did not succeed", day)
	}
	return nil
}
