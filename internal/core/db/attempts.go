package db

import (
	"fmt"
	"time"
)

// RecordAttempt stores the terminal outcome of downloading one workshop item.
// entryID may be 0 when no list entry owns the item.
func (db *DB) RecordAttempt(runID, itemID string, entryID int64, status string, startedAt, finishedAt time.Time) error {
	var entry any
	if entryID > 0 {
		entry = entryID
	}
	_, err := db.db.Exec(`
		INSERT INTO download_attempts (run_id, item_id, entry_id, status, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		runID,
		itemID,
		entry,
		status,
		startedAt.Format(time.RFC3339),
		finishedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record download attempt: %w", err)
	}
	return nil
}

// ListAttempts returns recorded attempts, newest first. If runID is non-empty
// only attempts of that run are returned. limit <= 0 means no limit.
func (db *DB) ListAttempts(runID string, limit int) ([]DownloadAttempt, error) {
	query := `
		SELECT id, run_id, item_id, COALESCE(entry_id, 0), status, started_at, finished_at
		FROM download_attempts
	`
	var args []any
	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list download attempts: %w", err)
	}
	defer rows.Close()

	var out []DownloadAttempt
	for rows.Next() {
		var a DownloadAttempt
		if err := rows.Scan(&a.ID, &a.RunID, &a.ItemID, &a.EntryID, &a.Status, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan download attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
