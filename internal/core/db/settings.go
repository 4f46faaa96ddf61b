package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const appIDKey = "app_id"

// GetAppID returns the stored application id, or "" if none is set.
func (db *DB) GetAppID() (string, error) {
	var v string
	err := db.db.QueryRow("SELECT value FROM settings WHERE key = ?", appIDKey).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get app id: %w", err)
	}
	return v, nil
}

// SetAppID stores the application id. An empty value clears it.
func (db *DB) SetAppID(appID string) error {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		if _, err := db.db.Exec("DELETE FROM settings WHERE key = ?", appIDKey); err != nil {
			return fmt.Errorf("failed to clear app id: %w", err)
		}
		return nil
	}
	_, err := db.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, appIDKey, appID)
	if err != nil {
		return fmt.Errorf("failed to set app id: %w", err)
	}
	return nil
}
