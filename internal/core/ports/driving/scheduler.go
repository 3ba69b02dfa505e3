package driving

import "context"

// Scheduler runs the pipeline tasks on their configured cadence.
type Scheduler interface {
	// Start begins the scheduler loop. Blocks until Stop is called or
	// the context is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the scheduler, waiting for running
	// tasks to complete.
	Stop() error
}
