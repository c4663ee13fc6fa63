package saltedge

import (
	"context"
	"time"
)

// ClientInterface defines the operations the sync services need from the
// aggregator. Allows mocking in tests.
type ClientInterface interface {
	CreateConnectSession(ctx context.Context, customerID, returnURL, countryCode string, providerCodes []string) (string, error)
	GetConnection(ctx context.Context, connectionID string) (*Connection, error)
	GetConnections(ctx context.Context, customerID string) ([]Connection, error)
	GetAccounts(ctx context.Context, connectionID string) ([]Account, error)
	GetTransactions(ctx context.Context, accountID string, fromDate, toDate *time.Time) ([]Transaction, error)
	RefreshConnection(ctx context.Context, connectionID string) bool
	RemoveConnection(ctx context.Context, connectionID string) bool
}
