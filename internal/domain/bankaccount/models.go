package bankaccount

import (
	"errors"
	"time"
)

var (
	// Common ISO 4217 currency codes
	validCurrencies = map[string]struct{}{
		"DKK": {}, "SEK": {}, "NOK": {}, "EUR": {}, "GBP": {},
		"USD": {}, "CHF": {}, "JPY": {}, "CAD": {}, "AUD": {},
		"NZD": {}, "PLN": {}, "CZK": {}, "HUF": {}, "ISK": {},
	}
)

// Domain errors
var (
	ErrAccountNotFound = errors.New("bank account not found")
	ErrInvalidCurrency = errors.New("valid ISO 4217 currency is required")
)

// BankAccount is an account discovered through a bank connection. Rows
// are never deleted on disconnect, only deactivated.
type BankAccount struct {
	ID               int64     `json:"id"`
	ConnectionID     int64     `json:"connection_id"`
	ExternalID       string    `json:"external_id"`
	Name             string    `json:"name"`
	AccountType      string    `json:"account_type"`
	Currency         string    `json:"currency"`
	Balance          float64   `json:"balance"`
	AvailableBalance *float64  `json:"available_balance,omitempty"`
	IBAN             *string   `json:"iban,omitempty"`
	AccountNumber    *string   `json:"account_number,omitempty"`
	SwiftCode        *string   `json:"swift_code,omitempty"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UpsertParams contains the aggregator-side account state, keyed by
// (connection id, external id).
type UpsertParams struct {
	ConnectionID     int64
	ExternalID       string
	Name             string
	AccountType      string
	Currency         string
	Balance          float64
	AvailableBalance *float64
	IBAN             *string
	AccountNumber    *string
	SwiftCode        *string
}

// Validate validates the upsert parameters
func (p UpsertParams) Validate() error {
	if p.ConnectionID <= 0 {
		return errors.New("valid connection ID is required for upsert")
	}
	if p.ExternalID == "" {
		return errors.New("external account ID is required for upsert")
	}
	if p.Name == "" {
		return errors.New("account name is required")
	}
	if p.Currency == "" || !IsValidCurrency(p.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

// IsValidCurrency checks if the provided currency is a valid ISO 4217 code.
func IsValidCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	_, ok := validCurrencies[c]
	return ok
}
