package scheduler

import (
	"context"
	"fmt"
	"log"

	"tracker/internal/domain/banking"
)

// BankSyncJob syncs every active bank connection one user has.
type BankSyncJob struct {
	userID         string
	bankingService *banking.Service
}

// NewBankSyncJob creates a new bank sync job for a user
func NewBankSyncJob(userID string, bankingService *banking.Service) *BankSyncJob {
	return &BankSyncJob{
		userID:         userID,
		bankingService: bankingService,
	}
}

// Execute runs the sync job
func (j *BankSyncJob) Execute(ctx context.Context) error {
	log.Printf("Starting bank sync for user %s", j.userID)

	ok, results, err := j.bankingService.SyncAll(ctx, j.userID)
	if err != nil {
		log.Printf("Bank sync failed for user %s: %v", j.userID, err)
		return fmt.Errorf("sync failed: %w", err)
	}

	var created, skipped, errCount int
	for _, result := range results {
		created += result.Created
		skipped += result.Skipped
		errCount += len(result.Errors)
	}

	if !ok {
		log.Printf("Bank sync for user %s completed with errors: Created=%d, Skipped=%d, Errors=%d",
			j.userID, created, skipped, errCount)
		// Return error to mark for retry
		return fmt.Errorf("sync completed with %d errors", errCount)
	}

	log.Printf("Bank sync for user %s completed successfully: Created=%d, Skipped=%d",
		j.userID, created, skipped)

	return nil
}

// UserID returns the user ID associated with this job
func (j *BankSyncJob) UserID() string {
	return j.userID
}

// Description returns a human-readable description of the job
func (j *BankSyncJob) Description() string {
	return fmt.Sprintf("Bank sync for user %s", j.userID)
}

// SyncJobProvider builds the batch of sync jobs: one per user holding at
// least one active connection. Wired into the scheduler's JobProvider.
func SyncJobProvider(bankingService *banking.Service, listUsers func(context.Context) ([]string, error)) func(context.Context) ([]Job, error) {
	return func(ctx context.Context) ([]Job, error) {
		userIDs, err := listUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users to sync: %w", err)
		}

		jobs := make([]Job, 0, len(userIDs))
		for _, userID := range userIDs {
			jobs = append(jobs, NewBankSyncJob(userID, bankingService))
		}
		return jobs, nil
	}
}
