package transaction

import (
	"context"
	"time"
)

// Repository defines the data access contract for transactions.
type Repository interface {
	// Insert records a transaction. When the external id is already
	// stored the row is left untouched and inserted reports false.
	Insert(ctx context.Context, params InsertParams) (inserted bool, err error)

	// ExistsByExternalID reports whether a bank transaction with the
	// given aggregator id has been stored.
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)

	// LatestBankDate returns the date of the most recent bank-sourced
	// transaction on the account, or nil when none exist.
	LatestBankDate(ctx context.Context, bankAccountID int64) (*time.Time, error)

	// ListByUserID returns the user's transactions, newest first,
	// optionally bounded by date.
	ListByUserID(ctx context.Context, userID string, from, to *time.Time) ([]Transaction, error)

	// ListByAccountID returns the transactions on one bank account,
	// newest first.
	ListByAccountID(ctx context.Context, bankAccountID int64) ([]Transaction, error)
}
