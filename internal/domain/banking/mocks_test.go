package banking

import (
	"context"
	"time"

	"tracker/internal/domain/bankaccount"
	"tracker/internal/domain/connection"
	"tracker/internal/domain/transaction"
	"tracker/internal/infrastructure/saltedge"
)

// MockClient is a mock implementation of the saltedge.ClientInterface
type MockClient struct {
	CreateConnectSessionFunc func(ctx context.Context, customerID, returnURL, countryCode string, providerCodes []string) (string, error)
	GetConnectionFunc        func(ctx context.Context, connectionID string) (*saltedge.Connection, error)
	GetConnectionsFunc       func(ctx context.Context, customerID string) ([]saltedge.Connection, error)
	GetAccountsFunc          func(ctx context.Context, connectionID string) ([]saltedge.Account, error)
	GetTransactionsFunc      func(ctx context.Context, accountID string, fromDate, toDate *time.Time) ([]saltedge.Transaction, error)
	RefreshConnectionFunc    func(ctx context.Context, connectionID string) bool
	RemoveConnectionFunc     func(ctx context.Context, connectionID string) bool
}

func (m *MockClient) CreateConnectSession(ctx context.Context, customerID, returnURL, countryCode string, providerCodes []string) (string, error) {
	if m.CreateConnectSessionFunc != nil {
		return m.CreateConnectSessionFunc(ctx, customerID, returnURL, countryCode, providerCodes)
	}
	return "", nil
}

func (m *MockClient) GetConnection(ctx context.Context, connectionID string) (*saltedge.Connection, error) {
	if m.GetConnectionFunc != nil {
		return m.GetConnectionFunc(ctx, connectionID)
	}
	return nil, nil
}

func (m *MockClient) GetConnections(ctx context.Context, customerID string) ([]saltedge.Connection, error) {
	if m.GetConnectionsFunc != nil {
		return m.GetConnectionsFunc(ctx, customerID)
	}
	return nil, nil
}

func (m *MockClient) GetAccounts(ctx context.Context, connectionID string) ([]saltedge.Account, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, connectionID)
	}
	return nil, nil
}

func (m *MockClient) GetTransactions(ctx context.Context, accountID string, fromDate, toDate *time.Time) ([]saltedge.Transaction, error) {
	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, accountID, fromDate, toDate)
	}
	return nil, nil
}

func (m *MockClient) RefreshConnection(ctx context.Context, connectionID string) bool {
	if m.RefreshConnectionFunc != nil {
		return m.RefreshConnectionFunc(ctx, connectionID)
	}
	return false
}

func (m *MockClient) RemoveConnection(ctx context.Context, connectionID string) bool {
	if m.RemoveConnectionFunc != nil {
		return m.RemoveConnectionFunc(ctx, connectionID)
	}
	return false
}

// MockConnectionRepository is a mock implementation of connection.Repository
type MockConnectionRepository struct {
	UpsertFunc                func(ctx context.Context, params connection.UpsertParams) (*connection.Connection, error)
	GetByExternalIDFunc       func(ctx context.Context, externalID string) (*connection.Connection, error)
	GetByIDForUserFunc        func(ctx context.Context, id int64, userID string) (*connection.Connection, error)
	ListByUserIDFunc          func(ctx context.Context, userID string) ([]connection.Connection, error)
	ListActiveByUserIDFunc    func(ctx context.Context, userID string) ([]connection.Connection, error)
	ListUserIDsWithActiveFunc func(ctx context.Context) ([]string, error)
	SetStatusFunc             func(ctx context.Context, id int64, status string, message *string) error
	UpdateLastSyncFunc        func(ctx context.Context, id int64, syncedAt time.Time) error
}

func (m *MockConnectionRepository) Upsert(ctx context.Context, params connection.UpsertParams) (*connection.Connection, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockConnectionRepository) GetByExternalID(ctx context.Context, externalID string) (*connection.Connection, error) {
	if m.GetByExternalIDFunc != nil {
		return m.GetByExternalIDFunc(ctx, externalID)
	}
	return nil, nil
}

func (m *MockConnectionRepository) GetByIDForUser(ctx context.Context, id int64, userID string) (*connection.Connection, error) {
	if m.GetByIDForUserFunc != nil {
		return m.GetByIDForUserFunc(ctx, id, userID)
	}
	return nil, nil
}

func (m *MockConnectionRepository) ListByUserID(ctx context.Context, userID string) ([]connection.Connection, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockConnectionRepository) ListActiveByUserID(ctx context.Context, userID string) ([]connection.Connection, error) {
	if m.ListActiveByUserIDFunc != nil {
		return m.ListActiveByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockConnectionRepository) ListUserIDsWithActive(ctx context.Context) ([]string, error) {
	if m.ListUserIDsWithActiveFunc != nil {
		return m.ListUserIDsWithActiveFunc(ctx)
	}
	return nil, nil
}

func (m *MockConnectionRepository) SetStatus(ctx context.Context, id int64, status string, message *string) error {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, id, status, message)
	}
	return nil
}

func (m *MockConnectionRepository) UpdateLastSync(ctx context.Context, id int64, syncedAt time.Time) error {
	if m.UpdateLastSyncFunc != nil {
		return m.UpdateLastSyncFunc(ctx, id, syncedAt)
	}
	return nil
}

// MockAccountRepository is a mock implementation of bankaccount.Repository
type MockAccountRepository struct {
	UpsertFunc                   func(ctx context.Context, params bankaccount.UpsertParams) (*bankaccount.BankAccount, error)
	GetByIDFunc                  func(ctx context.Context, id int64) (*bankaccount.BankAccount, error)
	GetByIDForUserFunc           func(ctx context.Context, id int64, userID string) (*bankaccount.BankAccount, error)
	ListByConnectionIDFunc       func(ctx context.Context, connectionID int64) ([]bankaccount.BankAccount, error)
	ListActiveByUserIDFunc       func(ctx context.Context, userID string) ([]bankaccount.BankAccount, error)
	DeactivateByConnectionIDFunc func(ctx context.Context, connectionID int64) error
	TotalBalanceFunc             func(ctx context.Context, userID, currency string) (float64, error)
}

func (m *MockAccountRepository) Upsert(ctx context.Context, params bankaccount.UpsertParams) (*bankaccount.BankAccount, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*bankaccount.BankAccount, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockAccountRepository) GetByIDForUser(ctx context.Context, id int64, userID string) (*bankaccount.BankAccount, error) {
	if m.GetByIDForUserFunc != nil {
		return m.GetByIDForUserFunc(ctx, id, userID)
	}
	return nil, nil
}

func (m *MockAccountRepository) ListByConnectionID(ctx context.Context, connectionID int64) ([]bankaccount.BankAccount, error) {
	if m.ListByConnectionIDFunc != nil {
		return m.ListByConnectionIDFunc(ctx, connectionID)
	}
	return nil, nil
}

func (m *MockAccountRepository) ListActiveByUserID(ctx context.Context, userID string) ([]bankaccount.BankAccount, error) {
	if m.ListActiveByUserIDFunc != nil {
		return m.ListActiveByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockAccountRepository) DeactivateByConnectionID(ctx context.Context, connectionID int64) error {
	if m.DeactivateByConnectionIDFunc != nil {
		return m.DeactivateByConnectionIDFunc(ctx, connectionID)
	}
	return nil
}

func (m *MockAccountRepository) TotalBalance(ctx context.Context, userID, currency string) (float64, error) {
	if m.TotalBalanceFunc != nil {
		return m.TotalBalanceFunc(ctx, userID, currency)
	}
	return 0, nil
}

// MockTransactionRepository is a mock implementation of transaction.Repository
type MockTransactionRepository struct {
	InsertFunc             func(ctx context.Context, params transaction.InsertParams) (bool, error)
	ExistsByExternalIDFunc func(ctx context.Context, externalID string) (bool, error)
	LatestBankDateFunc     func(ctx context.Context, bankAccountID int64) (*time.Time, error)
	ListByUserIDFunc       func(ctx context.Context, userID string, from, to *time.Time) ([]transaction.Transaction, error)
	ListByAccountIDFunc    func(ctx context.Context, bankAccountID int64) ([]transaction.Transaction, error)
}

func (m *MockTransactionRepository) Insert(ctx context.Context, params transaction.InsertParams) (bool, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, params)
	}
	return true, nil
}

func (m *MockTransactionRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	if m.ExistsByExternalIDFunc != nil {
		return m.ExistsByExternalIDFunc(ctx, externalID)
	}
	return false, nil
}

func (m *MockTransactionRepository) LatestBankDate(ctx context.Context, bankAccountID int64) (*time.Time, error) {
	if m.LatestBankDateFunc != nil {
		return m.LatestBankDateFunc(ctx, bankAccountID)
	}
	return nil, nil
}

func (m *MockTransactionRepository) ListByUserID(ctx context.Context, userID string, from, to *time.Time) ([]transaction.Transaction, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID, from, to)
	}
	return nil, nil
}

func (m *MockTransactionRepository) ListByAccountID(ctx context.Context, bankAccountID int64) ([]transaction.Transaction, error) {
	if m.ListByAccountIDFunc != nil {
		return m.ListByAccountIDFunc(ctx, bankAccountID)
	}
	return nil, nil
}
