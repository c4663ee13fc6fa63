package banking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracker/internal/domain/bankaccount"
	"tracker/internal/domain/connection"
	"tracker/internal/domain/transaction"
	"tracker/internal/infrastructure/saltedge"
)

// Domain errors
var (
	ErrProviderNotAllowed = errors.New("bank provider is not supported")
	ErrUnknownConnection  = errors.New("connection is not known to the aggregator")
	ErrMissingReturnURL   = errors.New("return URL is required")
)

// How far back to look on the first sync of an account.
const initialSyncWindowDays = 30

// SyncResult contains the results of syncing one connection
type SyncResult struct {
	ConnectionID      int64
	AccountsFound     int
	TransactionsFound int
	Created           int
	Skipped           int
	Errors            []string
}

// Service orchestrates the bank synchronization pipeline: consent sessions,
// aggregator callbacks, account and transaction sync, and disconnects.
type Service struct {
	client          saltedge.ClientInterface
	connectionRepo  connection.Repository
	accountRepo     bankaccount.Repository
	transactionRepo transaction.Repository
	countryCode     string
	providerCodes   []string

	now func() time.Time
}

// NewService creates a new banking service
func NewService(
	client saltedge.ClientInterface,
	connectionRepo connection.Repository,
	accountRepo bankaccount.Repository,
	transactionRepo transaction.Repository,
	countryCode string,
	providerCodes []string,
) *Service {
	return &Service{
		client:          client,
		connectionRepo:  connectionRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		countryCode:     countryCode,
		providerCodes:   providerCodes,
		now:             time.Now,
	}
}

// InitiateConnection starts the aggregator's consent flow and returns the
// URL the user must visit to authorize access to their bank. An optional
// provider code narrows the session to one bank; it must be on the
// configured whitelist.
func (s *Service) InitiateConnection(ctx context.Context, userID, returnURL, providerCode string) (string, error) {
	if returnURL == "" {
		return "", ErrMissingReturnURL
	}

	providerCodes := s.providerCodes
	if providerCode != "" {
		if !s.isProviderAllowed(providerCode) {
			return "", ErrProviderNotAllowed
		}
		providerCodes = []string{providerCode}
	}

	connectURL, err := s.client.CreateConnectSession(ctx, userID, returnURL, s.countryCode, providerCodes)
	if err != nil {
		return "", fmt.Errorf("failed to create connect session: %w", err)
	}

	log.Printf("Created connect session for user %s", userID)
	return connectURL, nil
}

// ProcessCallback handles the aggregator's notification that a connection
// was established or updated. It stores the connection state and then
// synchronously syncs its accounts and transactions, so data is available
// by the time the user returns to the app.
func (s *Service) ProcessCallback(ctx context.Context, userID, externalConnectionID string) (*SyncResult, error) {
	remote, err := s.client.GetConnection(ctx, externalConnectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connection from aggregator: %w", err)
	}
	if remote == nil {
		return nil, ErrUnknownConnection
	}

	consentExpiresAt, err := remote.GetConsentExpiresAt()
	if err != nil {
		log.Printf("Warning: unparseable consent expiry on connection %s: %v", externalConnectionID, err)
	}

	status, statusMessage := mapConnectionStatus(remote.Status)
	conn, err := s.connectionRepo.Upsert(ctx, connection.UpsertParams{
		UserID:           userID,
		ExternalID:       remote.ID,
		BankName:         remote.ProviderName,
		BankCode:         remote.ProviderCode,
		Status:           status,
		StatusMessage:    statusMessage,
		ConsentExpiresAt: consentExpiresAt,
		LastSyncAt:       s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store connection: %w", err)
	}

	// Sync runs regardless of the reported status so the caller sees the
	// accounts the aggregator still reports for this connection.
	return s.syncConnection(ctx, conn)
}

// SyncConnection syncs one of the user's connections on demand.
func (s *Service) SyncConnection(ctx context.Context, userID string, connectionID int64) (*SyncResult, error) {
	conn, err := s.connectionRepo.GetByIDForUser(ctx, connectionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	if conn == nil {
		return nil, connection.ErrNotFound
	}
	return s.syncConnection(ctx, conn)
}

// SyncAll syncs every active connection the user has, concurrently.
// It reports whether all connections synced without errors.
func (s *Service) SyncAll(ctx context.Context, userID string) (bool, []*SyncResult, error) {
	connections, err := s.connectionRepo.ListActiveByUserID(ctx, userID)
	if err != nil {
		return false, nil, fmt.Errorf("failed to list active connections: %w", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*SyncResult
		ok      = true
	)
	for i := range connections {
		conn := connections[i]
		wg.Add(1)
		go func() {
			defer wg.Done()

			result, err := s.syncConnection(ctx, &conn)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Failed to sync connection %s: %v", conn.ExternalID, err)
				ok = false
				results = append(results, &SyncResult{ConnectionID: conn.ID, Errors: []string{err.Error()}})
				return
			}
			if len(result.Errors) > 0 {
				ok = false
			}
			results = append(results, result)
		}()
	}
	wg.Wait()

	return ok, results, nil
}

// syncConnection fetches the connection's accounts from the aggregator,
// upserts them, and syncs each account's transactions. A failure on one
// account is recorded and does not stop the others.
func (s *Service) syncConnection(ctx context.Context, conn *connection.Connection) (*SyncResult, error) {
	result := &SyncResult{
		ConnectionID: conn.ID,
		Errors:       []string{},
	}

	remoteAccounts, err := s.client.GetAccounts(ctx, conn.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts from aggregator: %w", err)
	}
	result.AccountsFound = len(remoteAccounts)

	for i := range remoteAccounts {
		if err := s.syncAccount(ctx, conn, &remoteAccounts[i], result); err != nil {
			errMsg := fmt.Sprintf("failed to sync account %s: %v", remoteAccounts[i].ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("Error: %s", errMsg)
		}
	}

	if err := s.connectionRepo.UpdateLastSync(ctx, conn.ID, s.now()); err != nil {
		log.Printf("Warning: failed to record sync time for connection %s: %v", conn.ExternalID, err)
	}

	log.Printf("Sync completed for connection %s: accounts=%d, transactions=%d, created=%d, skipped=%d, errors=%d",
		conn.ExternalID, result.AccountsFound, result.TransactionsFound, result.Created, result.Skipped, len(result.Errors))

	return result, nil
}

// syncAccount upserts one aggregator account and syncs its transactions.
func (s *Service) syncAccount(ctx context.Context, conn *connection.Connection, remote *saltedge.Account, result *SyncResult) error {
	params := bankaccount.UpsertParams{
		ConnectionID: conn.ID,
		ExternalID:   remote.ID,
		Name:         remote.Name,
		AccountType:  remote.Nature,
		Currency:     remote.CurrencyCode,
		Balance:      remote.Balance,
	}
	if remote.Extra != nil {
		params.AvailableBalance = remote.Extra.AvailableAmount
		params.IBAN = remote.Extra.IBAN
		params.AccountNumber = remote.Extra.AccountNumber
		params.SwiftCode = remote.Extra.Swift
	}

	acc, err := s.accountRepo.Upsert(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}

	return s.syncAccountTransactions(ctx, conn.UserID, acc, result)
}

// syncAccountTransactions fetches the account's transactions since the last
// stored one and inserts the ones not seen before. The window starts one day
// before the latest stored transaction so movements posted late are not
// missed; already-stored transactions are skipped, never updated.
func (s *Service) syncAccountTransactions(ctx context.Context, userID string, acc *bankaccount.BankAccount, result *SyncResult) error {
	from, err := s.syncWindowStart(ctx, acc.ID)
	if err != nil {
		return err
	}

	to := s.now()
	remoteTxs, err := s.client.GetTransactions(ctx, acc.ExternalID, &from, &to)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions from aggregator: %w", err)
	}
	result.TransactionsFound += len(remoteTxs)

	for i := range remoteTxs {
		if err := s.storeTransaction(ctx, userID, acc, &remoteTxs[i], result); err != nil {
			errMsg := fmt.Sprintf("failed to store transaction %s: %v", remoteTxs[i].ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("Error: %s", errMsg)
		}
	}

	return nil
}

// syncWindowStart returns the date to fetch transactions from: one day
// before the newest stored bank transaction, or the initial window for an
// account never synced.
func (s *Service) syncWindowStart(ctx context.Context, bankAccountID int64) (time.Time, error) {
	latest, err := s.transactionRepo.LatestBankDate(ctx, bankAccountID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest transaction date: %w", err)
	}
	if latest != nil {
		return latest.AddDate(0, 0, -1), nil
	}
	return s.now().AddDate(0, 0, -initialSyncWindowDays), nil
}

// storeTransaction inserts one aggregator transaction, skipping duplicates.
func (s *Service) storeTransaction(ctx context.Context, userID string, acc *bankaccount.BankAccount, remote *saltedge.Transaction, result *SyncResult) error {
	exists, err := s.transactionRepo.ExistsByExternalID(ctx, remote.ID)
	if err != nil {
		return fmt.Errorf("failed to check existing transaction: %w", err)
	}
	if exists {
		result.Skipped++
		return nil
	}

	madeOn, err := remote.GetMadeOn()
	if err != nil {
		return fmt.Errorf("failed to parse transaction date: %w", err)
	}
	if madeOn == nil {
		return fmt.Errorf("transaction date is required")
	}

	params := transaction.InsertParams{
		TransactionID:   uuid.New().String(),
		UserID:          userID,
		BankAccountID:   &acc.ID,
		ExternalID:      &remote.ID,
		Amount:          remote.Amount,
		Currency:        remote.CurrencyCode,
		Description:     remote.Description,
		TransactionType: remote.Mode,
		Date:            *madeOn,
		Status:          remote.Status,
		IsFromBank:      true,
	}
	if remote.Category != "" {
		params.Category = &remote.Category
	}
	if remote.Extra != nil {
		params.MerchantName = remote.Extra.Merchant
		params.RunningBalance = remote.Extra.RunningBalance

		extraJSON, err := json.Marshal(remote.Extra)
		if err != nil {
			log.Printf("Warning: failed to serialize extra data for transaction %s: %v", remote.ID, err)
		} else {
			extraStr := string(extraJSON)
			params.ExtraData = &extraStr
		}
	}

	inserted, err := s.transactionRepo.Insert(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	if inserted {
		result.Created++
	} else {
		// Lost the race against a concurrent sync of the same account
		result.Skipped++
	}
	return nil
}

// RefreshConnection asks the aggregator to re-fetch data from the bank.
// The refresh itself is asynchronous on the aggregator side; a later sync
// picks up the results.
func (s *Service) RefreshConnection(ctx context.Context, userID string, connectionID int64) (bool, error) {
	conn, err := s.connectionRepo.GetByIDForUser(ctx, connectionID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get connection: %w", err)
	}
	if conn == nil {
		return false, connection.ErrNotFound
	}

	return s.client.RefreshConnection(ctx, conn.ExternalID), nil
}

// Disconnect removes a bank connection: the aggregator-side removal is
// best effort, the local connection is marked inactive and its accounts
// deactivated. Stored transactions are kept.
func (s *Service) Disconnect(ctx context.Context, userID string, connectionID int64) error {
	conn, err := s.connectionRepo.GetByIDForUser(ctx, connectionID, userID)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	if conn == nil {
		return connection.ErrNotFound
	}

	if !s.client.RemoveConnection(ctx, conn.ExternalID) {
		log.Printf("Warning: aggregator-side removal failed for connection %s, disconnecting locally anyway", conn.ExternalID)
	}

	if err := s.accountRepo.DeactivateByConnectionID(ctx, conn.ID); err != nil {
		return err
	}
	if err := s.connectionRepo.SetStatus(ctx, conn.ID, connection.StatusInactive, nil); err != nil {
		return fmt.Errorf("failed to deactivate connection: %w", err)
	}

	log.Printf("Disconnected connection %s for user %s", conn.ExternalID, userID)
	return nil
}

// ListConnections returns the user's connections.
func (s *Service) ListConnections(ctx context.Context, userID string) ([]connection.Connection, error) {
	return s.connectionRepo.ListByUserID(ctx, userID)
}

// ListAccounts returns the user's active bank accounts.
func (s *Service) ListAccounts(ctx context.Context, userID string) ([]bankaccount.BankAccount, error) {
	return s.accountRepo.ListActiveByUserID(ctx, userID)
}

// ListTransactions returns the user's transactions, optionally bounded by date.
func (s *Service) ListTransactions(ctx context.Context, userID string, from, to *time.Time) ([]transaction.Transaction, error) {
	return s.transactionRepo.ListByUserID(ctx, userID, from, to)
}

// SyncAccount syncs one bank account on demand.
func (s *Service) SyncAccount(ctx context.Context, userID string, accountID int64) (*SyncResult, error) {
	acc, err := s.accountRepo.GetByIDForUser(ctx, accountID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	if acc == nil {
		return nil, bankaccount.ErrAccountNotFound
	}

	result := &SyncResult{ConnectionID: acc.ConnectionID, Errors: []string{}}
	if err := s.syncAccountTransactions(ctx, userID, acc, result); err != nil {
		return nil, err
	}
	return result, nil
}

// TotalBalance sums the user's active account balances in one currency.
func (s *Service) TotalBalance(ctx context.Context, userID, currency string) (float64, error) {
	if !bankaccount.IsValidCurrency(currency) {
		return 0, bankaccount.ErrInvalidCurrency
	}
	return s.accountRepo.TotalBalance(ctx, userID, currency)
}

func (s *Service) isProviderAllowed(code string) bool {
	for _, allowed := range s.providerCodes {
		if code == allowed {
			return true
		}
	}
	return false
}

// mapConnectionStatus translates the aggregator's connection status into the
// local one. Anything unrecognized is treated as an error state so the user
// sees the connection needs attention.
func mapConnectionStatus(remote string) (string, *string) {
	switch remote {
	case "active":
		return connection.StatusActive, nil
	case "inactive":
		return connection.StatusInactive, nil
	default:
		msg := fmt.Sprintf("aggregator reported status %q", remote)
		return connection.StatusError, &msg
	}
}
