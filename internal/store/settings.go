package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// GetSetting returns a settings value, or "" if the key is absent.
func GetSetting(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting upserts a settings value.
func SetSetting(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}

// EnsureDeviceID retrieves this terminal's device identifier, generating and
// persisting one on first run. Uses INSERT OR IGNORE + re-SELECT to avoid a
// TOCTOU race on concurrent startup.
func EnsureDeviceID(ctx context.Context, db *sql.DB) (string, error) {
	candidate := uuid.NewString()

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('device_id', ?)`,
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing device_id: %w", err)
	}

	// Always read back (either our insert or the existing value).
	var id string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'device_id'`,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("querying device_id: %w", err)
	}

	return id, nil
}
