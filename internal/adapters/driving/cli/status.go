package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline configuration and last run outcomes",
	Long: `Checks the configured directories, key material and passphrase
file, and reports the most recent decrypt batch and sync run.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	ctx := context.Background()

	cmd.Println("Configuration:")
	printPathCheck(cmd, "source directory", configStore.GetString("inbox.source_dir"))
	printPathCheck(cmd, "target directory", configStore.GetString("inbox.target_dir"))
	printPathCheck(cmd, "legacy key", configStore.GetString("keys.legacy_file"))
	printPathCheck(cmd, "current key", configStore.GetString("keys.current_file"))
	printPathCheck(cmd, "passphrase file", configStore.GetString("keys.passphrase_file"))

	host := configStore.GetString("remote.host")
	if host == "" {
		cmd.Println("  remote host:       not configured")
	} else {
		cmd.Printf("  remote host:       %s\n", host)
	}

	cmd.Println("\nLast decrypt batch:")
	if decryptLogStore == nil {
		cmd.Println("  store not configured")
	} else if latest, err := decryptLogStore.Latest(ctx); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Println("  none recorded")
		} else {
			cmd.Printf("  unavailable: %v\n", err)
		}
	} else {
		cmd.Printf("  %s  %s  %d files, %d decrypted, %d copied, %d failed\n",
			latest.Date.Format(domain.CompactDate), latest.Status,
			latest.Total, latest.Decrypted, latest.Copied, latest.Failed)
	}

	cmd.Println("\nLast sync run:")
	if transferLogStore == nil {
		cmd.Println("  store not configured")
	} else if runs, err := transferLogStore.ListTaskLogs(ctx, 1); err != nil {
		cmd.Printf("  unavailable: %v\n", err)
	} else if len(runs) == 0 {
		cmd.Println("  none recorded")
	} else {
		cmd.Printf("  %s  %s  started %s, took %s\n",
			runs[0].Date.Format(domain.CompactDate), runs[0].Status,
			runs[0].StartTime.Format("15:04:05"), runs[0].Duration.Round(0))
	}

	return nil
}

// printPathCheck prints one configured path and whether it exists.
func printPathCheck(cmd *cobra.Command, label, path string) {
	if path == "" {
		cmd.Printf("  %-18s not configured\n", label+":")
		return
	}
	if _, err := os.Stat(path); err != nil {
		cmd.Printf("  %-18s %s (missing)\n", label+":", path)
		return
	}
	cmd.Printf("  %-18s %s\n", label+":", path)
}
