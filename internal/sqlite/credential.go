package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/sitesync/internal/domain/session"
	"github.com/ganot/sitesync/internal/repository"
)

// CredentialRepository implements session.CredentialStore for SQLite. It
// holds at most one row.
type CredentialRepository struct {
	db  *DB
	now func() time.Time
}

// NewCredentialRepository creates a new CredentialRepository
func NewCredentialRepository(db *DB) *CredentialRepository {
	return &CredentialRepository{db: db, now: time.Now}
}

// Save replaces the stored credentials.
func (r *CredentialRepository) Save(ctx context.Context, creds session.StoredCredentials) error {
	var userJSON sql.NullString
	if creds.User != nil {
		data, err := json.Marshal(creds.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		userJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO session_credentials (id, token, tenant_id, user_json, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			tenant_id = excluded.tenant_id,
			user_json = excluded.user_json,
			saved_at = excluded.saved_at
	`
	_, err := r.db.ExecContext(ctx, query, creds.Token, creds.TenantID, userJSON, r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Load returns the stored credentials or repository.ErrNotFound.
func (r *CredentialRepository) Load(ctx context.Context) (*session.StoredCredentials, error) {
	var (
		creds    session.StoredCredentials
		userJSON sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `SELECT token, tenant_id, user_json FROM session_credentials WHERE id = 1`).
		Scan(&creds.Token, &creds.TenantID, &userJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if userJSON.Valid {
		var user session.User
		if err := json.Unmarshal([]byte(userJSON.String), &user); err != nil {
			return nil, fmt.Errorf("failed to decode stored user: %w", err)
		}
		creds.User = &user
	}
	return &creds, nil
}

// Clear removes the stored credentials.
func (r *CredentialRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_credentials`); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
