package bankaccount

import "context"

// Repository defines the data access contract for bank accounts.
type Repository interface {
	// Upsert creates the account or, when one with the same
	// (connection id, external id) pair exists, updates its balance and
	// details. Returns the stored row either way.
	Upsert(ctx context.Context, params UpsertParams) (*BankAccount, error)

	// GetByID returns the account, or nil when none exists.
	GetByID(ctx context.Context, id int64) (*BankAccount, error)

	// GetByIDForUser returns the account only when its connection
	// belongs to the given user, or nil otherwise.
	GetByIDForUser(ctx context.Context, id int64, userID string) (*BankAccount, error)

	// ListByConnectionID returns all accounts under a connection,
	// inactive ones included.
	ListByConnectionID(ctx context.Context, connectionID int64) ([]BankAccount, error)

	// ListActiveByUserID returns the user's active accounts across all
	// of their connections.
	ListActiveByUserID(ctx context.Context, userID string) ([]BankAccount, error)

	// DeactivateByConnectionID marks every account under the connection
	// inactive. Used on disconnect.
	DeactivateByConnectionID(ctx context.Context, connectionID int64) error

	// TotalBalance sums the balances of the user's active accounts held
	// in the given currency.
	TotalBalance(ctx context.Context, userID, currency string) (float64, error)
}
