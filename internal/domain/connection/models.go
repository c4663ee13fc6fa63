package connection

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a connection does not exist or does
	// not belong to the requesting user.
	ErrNotFound = errors.New("bank connection not found")
)

// Valid connection statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusError    = "error"
)

// Connection is a link between a user and a bank, established through
// the aggregator's consent flow.
type Connection struct {
	ID               int64      `json:"id"`
	UserID           string     `json:"user_id"`
	ExternalID       string     `json:"external_id"`
	BankName         string     `json:"bank_name"`
	BankCode         string     `json:"bank_code"`
	Status           string     `json:"status"`
	StatusMessage    *string    `json:"status_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	LastSyncAt       *time.Time `json:"last_sync_at,omitempty"`
	ConsentExpiresAt *time.Time `json:"consent_expires_at,omitempty"`
}

// UpsertParams carries the aggregator-side state used to create or
// update a connection, keyed by its external id. LastSyncAt is written
// on both the insert and the update path: processing a callback counts
// as a sync.
type UpsertParams struct {
	UserID           string
	ExternalID       string
	BankName         string
	BankCode         string
	Status           string
	StatusMessage    *string
	ConsentExpiresAt *time.Time
	LastSyncAt       time.Time
}
