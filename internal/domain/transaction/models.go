package transaction

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidInput        = errors.New("invalid input")
)

// Transaction is a financial movement. Bank-sourced rows carry an
// external id and are immutable after insertion.
type Transaction struct {
	ID             int64     `json:"id"`
	TransactionID  string    `json:"transaction_id"`
	UserID         string    `json:"user_id"`
	BankAccountID  *int64    `json:"bank_account_id,omitempty"`
	ExternalID     *string   `json:"external_id,omitempty"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	Description    string    `json:"description"`
	MerchantName   *string   `json:"merchant_name,omitempty"`
	Category       *string   `json:"category,omitempty"`
	TransactionType string   `json:"transaction_type"`
	RunningBalance *float64  `json:"running_balance,omitempty"`
	Date           time.Time `json:"date"`
	Status         string    `json:"status"`
	ExtraData      *string   `json:"extra_data,omitempty"`
	IsFromBank     bool      `json:"is_from_bank"`
	CreatedAt      time.Time `json:"created_at"`
}

// InsertParams contains parameters for recording a bank transaction.
type InsertParams struct {
	TransactionID  string
	UserID         string
	BankAccountID  *int64
	ExternalID     *string
	Amount         float64
	Currency       string
	Description    string
	MerchantName   *string
	Category       *string
	// TransactionType carries the source's own label (e.g. normal, fee,
	// transfer) unchanged.
	TransactionType string
	RunningBalance  *float64
	Date            time.Time
	Status          string
	ExtraData       *string
	IsFromBank      bool
}

// Validate validates the insert parameters
func (p InsertParams) Validate() error {
	if p.TransactionID == "" {
		return errors.New("transaction ID is required")
	}
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.Currency == "" {
		return errors.New("currency is required")
	}
	if p.Date.IsZero() {
		return errors.New("transaction date is required")
	}
	return nil
}
