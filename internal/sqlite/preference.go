package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// PreferenceRepository implements repository.PreferenceRepository for SQLite
type PreferenceRepository struct {
	db  *DB
	now func() time.Time
}

// NewPreferenceRepository creates a new PreferenceRepository
func NewPreferenceRepository(db *DB) *PreferenceRepository {
	return &PreferenceRepository{db: db, now: time.Now}
}

// Bool reads a boolean flag. An unset flag is false.
func (r *PreferenceRepository) Bool(ctx context.Context, key string) (bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get preference %q: %w", key, err)
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("preference %q is not a bool: %w", key, err)
	}
	return b, nil
}

// SetBool writes a boolean flag.
func (r *PreferenceRepository) SetBool(ctx context.Context, key string, value bool) error {
	query := `
		INSERT INTO preferences (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, key, strconv.FormatBool(value), r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to set preference %q: %w", key, err)
	}
	return nil
}
