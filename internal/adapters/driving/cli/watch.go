package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the inbox and decrypt settled drops",
	Long: `Observes the encrypted inbox tree. When a dated drop has been
quiet for the settle window, its decrypt batch runs automatically.
Blocks until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if inboxWatcher == nil {
		return errors.New("inbox watcher not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := inboxWatcher.Start(ctx); err != nil {
		return err
	}
	cmd.Println("Watching inbox. Press Ctrl+C to stop.")

	<-ctx.Done()
	cmd.Println("Shutting down...")
	inboxWatcher.Stop()
	return nil
}
