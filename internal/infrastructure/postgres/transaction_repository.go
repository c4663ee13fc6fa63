package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tracker/internal/domain/transaction"
)

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	id, transaction_id, user_id, bank_account_id, external_id, amount, currency,
	description, merchant_name, category, transaction_type, running_balance,
	date, status, extra_data, is_from_bank, created_at
`

// Insert records a transaction. Bank transactions are immutable once stored:
// a conflicting external_id leaves the existing row untouched.
func (r *TransactionRepository) Insert(ctx context.Context, params transaction.InsertParams) (bool, error) {
	if err := params.Validate(); err != nil {
		return false, err
	}

	query := `
		INSERT INTO transactions (
			transaction_id, user_id, bank_account_id, external_id, amount, currency,
			description, merchant_name, category, transaction_type, running_balance,
			date, status, extra_data, is_from_bank
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (external_id) WHERE external_id IS NOT NULL
		DO NOTHING
	`

	var bankAccountIn sql.NullInt64
	if params.BankAccountID != nil {
		bankAccountIn = sql.NullInt64{Int64: *params.BankAccountID, Valid: true}
	}
	var runningBalanceIn sql.NullFloat64
	if params.RunningBalance != nil {
		runningBalanceIn = sql.NullFloat64{Float64: *params.RunningBalance, Valid: true}
	}

	result, err := r.db.ExecContext(
		ctx, query,
		params.TransactionID, params.UserID, bankAccountIn, nullStringPtr(params.ExternalID),
		params.Amount, params.Currency, params.Description,
		nullStringPtr(params.MerchantName), nullStringPtr(params.Category),
		params.TransactionType, runningBalanceIn,
		params.Date, params.Status, nullStringPtr(params.ExtraData), params.IsFromBank,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// ExistsByExternalID checks whether a bank transaction has been stored
func (r *TransactionRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE external_id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, externalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}
	return exists, nil
}

// LatestBankDate returns the date of the newest bank-sourced transaction on
// the account, or nil when none exist
func (r *TransactionRepository) LatestBankDate(ctx context.Context, bankAccountID int64) (*time.Time, error) {
	query := `
		SELECT MAX(date) FROM transactions
		WHERE bank_account_id = $1 AND is_from_bank = TRUE
	`

	var latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, bankAccountID).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to get latest transaction date: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// ListByUserID retrieves the user's transactions, newest first, optionally bounded by date
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID string, from, to *time.Time) ([]transaction.Transaction, error) {
	query := `SELECT` + transactionColumns + `FROM transactions WHERE user_id = $1`
	args := []any{userID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date DESC, id DESC"

	return r.list(ctx, query, args...)
}

// ListByAccountID retrieves the transactions on one bank account, newest first
func (r *TransactionRepository) ListByAccountID(ctx context.Context, bankAccountID int64) ([]transaction.Transaction, error) {
	query := `SELECT` + transactionColumns + `FROM transactions WHERE bank_account_id = $1 ORDER BY date DESC, id DESC`
	return r.list(ctx, query, bankAccountID)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]transaction.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []transaction.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	var bankAccountID sql.NullInt64
	var externalID, merchantName, category, extraData sql.NullString
	var runningBalance sql.NullFloat64

	err := s.Scan(
		&tx.ID, &tx.TransactionID, &tx.UserID, &bankAccountID, &externalID,
		&tx.Amount, &tx.Currency, &tx.Description, &merchantName, &category,
		&tx.TransactionType, &runningBalance, &tx.Date, &tx.Status,
		&extraData, &tx.IsFromBank, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bankAccountID.Valid {
		tx.BankAccountID = &bankAccountID.Int64
	}
	if externalID.Valid {
		tx.ExternalID = &externalID.String
	}
	if merchantName.Valid {
		tx.MerchantName = &merchantName.String
	}
	if category.Valid {
		tx.Category = &category.String
	}
	if extraData.Valid {
		tx.ExtraData = &extraData.String
	}
	if runningBalance.Valid {
		tx.RunningBalance = &runningBalance.Float64
	}
	return &tx, nil
}
