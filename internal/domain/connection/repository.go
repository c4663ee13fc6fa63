package connection

import (
	"context"
	"time"
)

// Repository defines the data access contract for bank connections.
type Repository interface {
	// Upsert creates the connection or, when one with the same external
	// id already exists, updates its bank details and status. Returns
	// the stored row either way.
	Upsert(ctx context.Context, params UpsertParams) (*Connection, error)

	// GetByExternalID returns the connection with the given aggregator
	// id, or nil when none exists.
	GetByExternalID(ctx context.Context, externalID string) (*Connection, error)

	// GetByIDForUser returns the connection only when it belongs to the
	// given user, or nil otherwise.
	GetByIDForUser(ctx context.Context, id int64, userID string) (*Connection, error)

	// ListByUserID returns all of the user's connections, newest first.
	ListByUserID(ctx context.Context, userID string) ([]Connection, error)

	// ListActiveByUserID returns the user's connections eligible for
	// synchronization.
	ListActiveByUserID(ctx context.Context, userID string) ([]Connection, error)

	// ListUserIDsWithActive returns the distinct users that have at
	// least one active connection.
	ListUserIDsWithActive(ctx context.Context) ([]string, error)

	// SetStatus updates the connection's status and optional message.
	SetStatus(ctx context.Context, id int64, status string, message *string) error

	// UpdateLastSync records the time of the latest successful sync.
	UpdateLastSync(ctx context.Context, id int64, syncedAt time.Time) error
}
