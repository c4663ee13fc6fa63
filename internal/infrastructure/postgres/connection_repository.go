package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tracker/internal/domain/connection"
)

// ConnectionRepository implements the connection.Repository interface for PostgreSQL
type ConnectionRepository struct {
	db *DB
}

// NewConnectionRepository creates a new PostgreSQL bank connection repository
func NewConnectionRepository(db *DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

const connectionColumns = `
	id, user_id, external_id, bank_name, bank_code, status, status_message,
	created_at, last_sync_at, consent_expires_at
`

// Upsert creates or updates a connection based on its external ID
func (r *ConnectionRepository) Upsert(ctx context.Context, params connection.UpsertParams) (*connection.Connection, error) {
	query := `
		INSERT INTO bank_connections (user_id, external_id, bank_name, bank_code, status, status_message, consent_expires_at, last_sync_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (external_id)
		DO UPDATE SET
			bank_name = EXCLUDED.bank_name,
			bank_code = EXCLUDED.bank_code,
			status = EXCLUDED.status,
			status_message = EXCLUDED.status_message,
			consent_expires_at = EXCLUDED.consent_expires_at,
			last_sync_at = EXCLUDED.last_sync_at
		RETURNING` + connectionColumns

	var statusMessageIn sql.NullString
	if params.StatusMessage != nil {
		statusMessageIn = sql.NullString{String: *params.StatusMessage, Valid: true}
	}
	var consentExpiresIn sql.NullTime
	if params.ConsentExpiresAt != nil {
		consentExpiresIn = sql.NullTime{Time: *params.ConsentExpiresAt, Valid: true}
	}

	row := r.db.QueryRowContext(
		ctx, query,
		params.UserID, params.ExternalID, params.BankName, params.BankCode,
		params.Status, statusMessageIn, consentExpiresIn, params.LastSyncAt,
	)

	conn, err := scanConnection(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert connection: %w", err)
	}
	return conn, nil
}

// GetByExternalID retrieves a connection by its aggregator-side ID
func (r *ConnectionRepository) GetByExternalID(ctx context.Context, externalID string) (*connection.Connection, error) {
	query := `SELECT` + connectionColumns + `FROM bank_connections WHERE external_id = $1`

	conn, err := scanConnection(r.db.QueryRowContext(ctx, query, externalID))
	if err == sql.ErrNoRows {
		// Intentionally returns (nil, nil) instead of an error
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

// GetByIDForUser retrieves a connection scoped to its owner
func (r *ConnectionRepository) GetByIDForUser(ctx context.Context, id int64, userID string) (*connection.Connection, error) {
	query := `SELECT` + connectionColumns + `FROM bank_connections WHERE id = $1 AND user_id = $2`

	conn, err := scanConnection(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

// ListByUserID retrieves all connections for a specific user
func (r *ConnectionRepository) ListByUserID(ctx context.Context, userID string) ([]connection.Connection, error) {
	query := `SELECT` + connectionColumns + `FROM bank_connections WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListActiveByUserID retrieves the user's connections eligible for sync
func (r *ConnectionRepository) ListActiveByUserID(ctx context.Context, userID string) ([]connection.Connection, error) {
	query := `SELECT` + connectionColumns + `FROM bank_connections WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC`
	return r.list(ctx, query, userID, connection.StatusActive)
}

// ListUserIDsWithActive retrieves the distinct users holding at least one active connection
func (r *ConnectionRepository) ListUserIDsWithActive(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT user_id FROM bank_connections WHERE status = $1 ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, query, connection.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with active connections: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, userID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return userIDs, nil
}

// SetStatus updates the connection's status and optional message
func (r *ConnectionRepository) SetStatus(ctx context.Context, id int64, status string, message *string) error {
	query := `UPDATE bank_connections SET status = $1, status_message = $2 WHERE id = $3`

	var messageIn sql.NullString
	if message != nil {
		messageIn = sql.NullString{String: *message, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, status, messageIn, id)
	if err != nil {
		return fmt.Errorf("failed to update connection status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return connection.ErrNotFound
	}
	return nil
}

// UpdateLastSync records the time of the latest successful sync
func (r *ConnectionRepository) UpdateLastSync(ctx context.Context, id int64, syncedAt time.Time) error {
	query := `UPDATE bank_connections SET last_sync_at = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, syncedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update last sync time: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return connection.ErrNotFound
	}
	return nil
}

func (r *ConnectionRepository) list(ctx context.Context, query string, args ...any) ([]connection.Connection, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var connections []connection.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, *conn)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}
	return connections, nil
}

// scanner covers both *sql.Rows and the traced row wrapper
type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(s scanner) (*connection.Connection, error) {
	var conn connection.Connection
	var statusMessage sql.NullString
	var lastSyncAt, consentExpiresAt sql.NullTime

	err := s.Scan(
		&conn.ID, &conn.UserID, &conn.ExternalID, &conn.BankName, &conn.BankCode,
		&conn.Status, &statusMessage, &conn.CreatedAt, &lastSyncAt, &consentExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	if statusMessage.Valid {
		conn.StatusMessage = &statusMessage.String
	}
	if lastSyncAt.Valid {
		conn.LastSyncAt = &lastSyncAt.Time
	}
	if consentExpiresAt.Valid {
		conn.ConsentExpiresAt = &consentExpiresAt.Time
	}
	return &conn, nil
}
