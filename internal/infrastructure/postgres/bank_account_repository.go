package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"tracker/internal/domain/bankaccount"
)

// BankAccountRepository implements the bankaccount.Repository interface for PostgreSQL
type BankAccountRepository struct {
	db *DB
}

// NewBankAccountRepository creates a new PostgreSQL bank account repository
func NewBankAccountRepository(db *DB) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

const bankAccountColumns = `
	id, connection_id, external_id, name, account_type, currency, balance,
	available_balance, iban, account_number, swift_code, is_active, created_at, updated_at
`

// Upsert creates or updates an account based on (connection_id, external_id)
func (r *BankAccountRepository) Upsert(ctx context.Context, params bankaccount.UpsertParams) (*bankaccount.BankAccount, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO bank_accounts (
			connection_id, external_id, name, account_type, currency, balance,
			available_balance, iban, account_number, swift_code, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
		ON CONFLICT (connection_id, external_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			account_type = EXCLUDED.account_type,
			currency = EXCLUDED.currency,
			balance = EXCLUDED.balance,
			available_balance = EXCLUDED.available_balance,
			iban = EXCLUDED.iban,
			account_number = EXCLUDED.account_number,
			swift_code = EXCLUDED.swift_code,
			is_active = TRUE,
			updated_at = CURRENT_TIMESTAMP
		RETURNING` + bankAccountColumns

	var availableIn sql.NullFloat64
	if params.AvailableBalance != nil {
		availableIn = sql.NullFloat64{Float64: *params.AvailableBalance, Valid: true}
	}

	row := r.db.QueryRowContext(
		ctx, query,
		params.ConnectionID, params.ExternalID, params.Name, params.AccountType,
		params.Currency, params.Balance, availableIn,
		nullStringPtr(params.IBAN), nullStringPtr(params.AccountNumber), nullStringPtr(params.SwiftCode),
	)

	acc, err := scanBankAccount(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert bank account: %w", err)
	}
	return acc, nil
}

// GetByID retrieves an account by its ID
func (r *BankAccountRepository) GetByID(ctx context.Context, id int64) (*bankaccount.BankAccount, error) {
	query := `SELECT` + bankAccountColumns + `FROM bank_accounts WHERE id = $1`

	acc, err := scanBankAccount(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		// Intentionally returns (nil, nil) instead of an error
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return acc, nil
}

// GetByIDForUser retrieves an account only when its connection belongs to the user
func (r *BankAccountRepository) GetByIDForUser(ctx context.Context, id int64, userID string) (*bankaccount.BankAccount, error) {
	query := `
		SELECT a.id, a.connection_id, a.external_id, a.name, a.account_type, a.currency, a.balance,
		       a.available_balance, a.iban, a.account_number, a.swift_code, a.is_active, a.created_at, a.updated_at
		FROM bank_accounts a
		JOIN bank_connections c ON c.id = a.connection_id
		WHERE a.id = $1 AND c.user_id = $2
	`

	acc, err := scanBankAccount(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return acc, nil
}

// ListByConnectionID retrieves all accounts under a connection
func (r *BankAccountRepository) ListByConnectionID(ctx context.Context, connectionID int64) ([]bankaccount.BankAccount, error) {
	query := `SELECT` + bankAccountColumns + `FROM bank_accounts WHERE connection_id = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, connectionID)
}

// ListActiveByUserID retrieves the user's active accounts across all connections
func (r *BankAccountRepository) ListActiveByUserID(ctx context.Context, userID string) ([]bankaccount.BankAccount, error) {
	query := `
		SELECT a.id, a.connection_id, a.external_id, a.name, a.account_type, a.currency, a.balance,
		       a.available_balance, a.iban, a.account_number, a.swift_code, a.is_active, a.created_at, a.updated_at
		FROM bank_accounts a
		JOIN bank_connections c ON c.id = a.connection_id
		WHERE c.user_id = $1 AND a.is_active = TRUE
		ORDER BY a.created_at ASC
	`
	return r.list(ctx, query, userID)
}

// DeactivateByConnectionID marks every account under the connection inactive
func (r *BankAccountRepository) DeactivateByConnectionID(ctx context.Context, connectionID int64) error {
	query := `UPDATE bank_accounts SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE connection_id = $1`

	if _, err := r.db.ExecContext(ctx, query, connectionID); err != nil {
		return fmt.Errorf("failed to deactivate bank accounts: %w", err)
	}
	return nil
}

// TotalBalance sums the user's active account balances in one currency
func (r *BankAccountRepository) TotalBalance(ctx context.Context, userID, currency string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(a.balance), 0)
		FROM bank_accounts a
		JOIN bank_connections c ON c.id = a.connection_id
		WHERE c.user_id = $1 AND a.currency = $2 AND a.is_active = TRUE
	`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, userID, currency).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum balances: %w", err)
	}
	return total, nil
}

func (r *BankAccountRepository) list(ctx context.Context, query string, args ...any) ([]bankaccount.BankAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	defer rows.Close()

	var accounts []bankaccount.BankAccount
	for rows.Next() {
		acc, err := scanBankAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank accounts: %w", err)
	}
	return accounts, nil
}

func scanBankAccount(s scanner) (*bankaccount.BankAccount, error) {
	var acc bankaccount.BankAccount
	var available sql.NullFloat64
	var iban, accountNumber, swiftCode sql.NullString

	err := s.Scan(
		&acc.ID, &acc.ConnectionID, &acc.ExternalID, &acc.Name, &acc.AccountType,
		&acc.Currency, &acc.Balance, &available, &iban, &accountNumber, &swiftCode,
		&acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if available.Valid {
		acc.AvailableBalance = &available.Float64
	}
	if iban.Valid {
		acc.IBAN = &iban.String
	}
	if accountNumber.Valid {
		acc.AccountNumber = &accountNumber.String
	}
	if swiftCode.Valid {
		acc.SwiftCode = &swiftCode.String
	}
	return &acc, nil
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
