package scheduler

import "context"

// Job is a unit of work the worker pool executes. Different job types can
// be plugged in (sync jobs, cleanup jobs, consent expiry checks).
type Job interface {
	// Execute runs the job. The context carries the execution timeout.
	Execute(ctx context.Context) error

	// UserID returns the user this job works on behalf of, for logging.
	UserID() string

	// Description returns a human-readable description of the job.
	Description() string
}
