package saltedge

import (
	"fmt"
	"time"
)

// envelope is the standard Salt Edge response wrapper: {"data": ...}
type envelope[T any] struct {
	Data T `json:"data"`
}

// connectSessionRequest is the body for POST /connect_sessions
type connectSessionRequest struct {
	Data connectSessionData `json:"data"`
}

type connectSessionData struct {
	CustomerID    string   `json:"customer_id"`
	ReturnURL     string   `json:"return_url"`
	CountryCode   string   `json:"country_code"`
	ProviderCodes []string `json:"provider_codes,omitempty"`
}

// ConnectSession is the response of POST /connect_sessions
type ConnectSession struct {
	ConnectURL string `json:"connect_url"`
	ExpiresAt  string `json:"expires_at"`
}

// Connection represents a connection as reported by the aggregator
type Connection struct {
	ID               string `json:"id"`
	CustomerID       string `json:"customer_id"`
	ProviderID       string `json:"provider_id"`
	ProviderCode     string `json:"provider_code"`
	ProviderName     string `json:"provider_name"`
	Status           string `json:"status"`
	Categorization   string `json:"categorization"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	ConsentGivenAt   string `json:"consent_given_at"`
	ConsentExpiresAt string `json:"consent_expires_at"`
}

// GetConsentExpiresAt parses and returns the consent expiry timestamp
func (c *Connection) GetConsentExpiresAt() (*time.Time, error) {
	return parseTimestamp(c.ConsentExpiresAt, "consent_expires_at")
}

// Account represents an account as reported by the aggregator
type Account struct {
	ID           string        `json:"id"`
	ConnectionID string        `json:"connection_id"`
	Name         string        `json:"name"`
	Nature       string        `json:"nature"` // account type: account, savings, credit_card, ...
	Balance      float64       `json:"balance"`
	CurrencyCode string        `json:"currency_code"`
	Extra        *AccountExtra `json:"extra,omitempty"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
}

// AccountExtra carries optional bank-specific account fields
type AccountExtra struct {
	IBAN            *string  `json:"iban,omitempty"`
	AccountNumber   *string  `json:"account_number,omitempty"`
	Swift           *string  `json:"swift,omitempty"`
	AvailableAmount *float64 `json:"available_amount,omitempty"`
}

// Transaction represents a posted transaction as reported by the aggregator
type Transaction struct {
	ID           string            `json:"id"`
	AccountID    string            `json:"account_id"`
	Duplicated   bool              `json:"duplicated"`
	Mode         string            `json:"mode"` // normal, fee, transfer
	Status       string            `json:"status"`
	MadeOnString string            `json:"made_on"` // "2024-01-10" format
	Amount       float64           `json:"amount"`
	CurrencyCode string            `json:"currency_code"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	Extra        *TransactionExtra `json:"extra,omitempty"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}

// TransactionExtra carries optional source-specific transaction fields,
// passed through opaquely to the store
type TransactionExtra struct {
	Merchant             *string  `json:"merchant,omitempty"`
	OriginalAmount       *float64 `json:"original_amount,omitempty"`
	OriginalCurrencyCode *string  `json:"original_currency_code,omitempty"`
	RunningBalance       *float64 `json:"running_balance,omitempty"`
}

// GetMadeOn parses and returns the transaction date
func (t *Transaction) GetMadeOn() (*time.Time, error) {
	if t.MadeOnString == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", t.MadeOnString)
	if err != nil {
		// Some providers report full timestamps
		parsed, err = time.Parse(time.RFC3339, t.MadeOnString)
		if err != nil {
			return nil, fmt.Errorf("failed to parse made_on %q: %w", t.MadeOnString, err)
		}
	}
	return &parsed, nil
}

// errorResponse represents an error body from the API
type errorResponse struct {
	Error struct {
		Class   string `json:"class"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseTimestamp(s, field string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s %q: %w", field, s, err)
	}
	return &t, nil
}
