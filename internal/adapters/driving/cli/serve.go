package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline scheduler in the foreground",
	Long: `Runs the daily pipeline on its configured cadence: the decrypt
batch for yesterday, then the rule sync for the same date. Blocks until
interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if schedulerService == nil {
		return errors.New("scheduler not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")

	errCh := make(chan error, 1)
	go func() {
		errCh <- schedulerService.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		cmd.Println("Shutting down...")
		if err := schedulerService.Stop(); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
