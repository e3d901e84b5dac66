package driving

import "context"

// Scheduler runs ingestion sources on their cron schedule.
type Scheduler interface {
	// Start begins the background loop. It returns immediately.
	Start(ctx context.Context) error

	// Stop halts the loop and waits for in-flight runs.
	Stop()

	// Running reports whether the loop is active.
	Running() bool

	// RunDue executes every source that is due now and returns how many were started.
	RunDue(ctx context.Context) (int, error)
}
