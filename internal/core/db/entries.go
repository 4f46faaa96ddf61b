package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidURL is returned when an entry URL fails validation.
var ErrInvalidURL = errors.New("invalid URL")

// ErrDuplicateEntry is returned when the URL is already in the list.
var ErrDuplicateEntry = errors.New("entry already exists")

// ErrEntryNotFound is returned when no entry matches the lookup.
var ErrEntryNotFound = errors.New("entry not found")

// ValidateEntryURL validates that a URL is acceptable for the workshop list.
// It requires the URL to have http or https scheme and a non-empty host.
func ValidateEntryURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	return nil
}

const entryColumns = `
	id, url, name, kind, status,
	COALESCE(author, ''), COALESCE(file_size, ''), COALESCE(date_posted, ''),
	COALESCE(visitors, ''), COALESCE(image_url, ''),
	position, created_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var kind, status string
	err := row.Scan(
		&e.ID, &e.URL, &e.Name, &kind, &status,
		&e.Author, &e.FileSize, &e.DatePosted,
		&e.Visitors, &e.ImageURL,
		&e.Position, &e.CreatedAt,
	)
	e.Kind = EntryKind(kind)
	e.Status = EntryStatus(status)
	return e, err
}

// ------------------------------
// Entry methods
// ------------------------------

func (db *DB) GetEntry(id int64) (Entry, error) {
	e, err := scanEntry(db.db.QueryRow("SELECT "+entryColumns+" FROM entries WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("%w: %d", ErrEntryNotFound, id)
		}
		return Entry{}, fmt.Errorf("failed to get entry: %w", err)
	}
	return e, nil
}

func (db *DB) GetEntryByURL(urlStr string) (Entry, error) {
	e, err := scanEntry(db.db.QueryRow("SELECT "+entryColumns+" FROM entries WHERE url = ?", urlStr))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, urlStr)
		}
		return Entry{}, fmt.Errorf("failed to get entry: %w", err)
	}
	return e, nil
}

// AddEntry appends a new Pending entry of unknown kind to the end of the list.
//
// The URL is trimmed and validated; ErrInvalidURL and ErrDuplicateEntry are
// returned for bad or already-listed URLs.
// Emits an EntryCreatedEvent after successful insert.
func (db *DB) AddEntry(urlStr string) (Entry, error) {
	urlStr = strings.TrimSpace(urlStr)
	if err := ValidateEntryURL(urlStr); err != nil {
		return Entry{}, err
	}

	var exists bool
	if err := db.db.QueryRow("SELECT EXISTS (SELECT 1 FROM entries WHERE url = ?)", urlStr).Scan(&exists); err != nil {
		return Entry{}, fmt.Errorf("failed to check for duplicate entry: %w", err)
	}
	if exists {
		return Entry{}, fmt.Errorf("%w: %s", ErrDuplicateEntry, urlStr)
	}

	createdAt := time.Now().Format(time.RFC3339)
	result, err := db.db.Exec(`
		INSERT INTO entries (url, name, kind, status, position, created_at)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM entries), ?)
	`,
		urlStr,
		"Checking URL...",
		string(KindUnknown),
		string(StatusPending),
		createdAt,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to add entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	e, err := db.GetEntry(id)
	if err != nil {
		return Entry{}, err
	}

	db.emit(EntryCreatedEvent{Entry: e})

	return e, nil
}

func (db *DB) queryEntries(query string, args ...any) ([]Entry, error) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListEntries returns the list in user order.
func (db *DB) ListEntries() ([]Entry, error) {
	return db.queryEntries("SELECT " + entryColumns + " FROM entries ORDER BY position ASC")
}

// ListEntriesByStatus returns the entries in the given status, in user order.
func (db *DB) ListEntriesByStatus(status EntryStatus) ([]Entry, error) {
	return db.queryEntries("SELECT "+entryColumns+" FROM entries WHERE status = ? ORDER BY position ASC", string(status))
}

// UpdateEntryStatus sets an entry's status.
// Emits an EntryStatusChangedEvent when the status actually changes.
func (db *DB) UpdateEntryStatus(id int64, status EntryStatus) error {
	var old string
	if err := db.db.QueryRow("SELECT status FROM entries WHERE id = ?", id).Scan(&old); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrEntryNotFound, id)
		}
		return fmt.Errorf("failed to read entry status: %w", err)
	}
	if EntryStatus(old) == status {
		return nil
	}

	if _, err := db.db.Exec("UPDATE entries SET status = ? WHERE id = ?", string(status), id); err != nil {
		return fmt.Errorf("failed to update entry status: %w", err)
	}

	db.emit(EntryStatusChangedEvent{
		EntryID: id,
		Old:     EntryStatus(old),
		New:     status,
	})
	return nil
}

// SaveClassification stores page metadata and the final status for an entry.
// Emits an EntryClassifiedEvent after a successful save.
func (db *DB) SaveClassification(id int64, c Classification, status EntryStatus) error {
	res, err := db.db.Exec(`
		UPDATE entries
		SET
			name = ?,
			kind = ?,
			status = ?,
			author = ?,
			file_size = ?,
			date_posted = ?,
			visitors = ?,
			image_url = ?
		WHERE id = ?
	`,
		c.Name,
		string(c.Kind),
		string(status),
		nullIfEmpty(c.Author),
		nullIfEmpty(c.FileSize),
		nullIfEmpty(c.DatePosted),
		nullIfEmpty(c.Visitors),
		nullIfEmpty(c.ImageURL),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to save classification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to determine rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrEntryNotFound, id)
	}

	e, err := db.GetEntry(id)
	if err == nil {
		db.emit(EntryClassifiedEvent{Entry: e})
	}
	return nil
}

// DeleteEntry removes an entry from the list.
// Emits an EntryDeletedEvent after successful deletion.
func (db *DB) DeleteEntry(id int64) error {
	// Fetch entry before deletion to include in event
	e, _ := db.GetEntry(id)

	res, err := db.db.Exec("DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to determine rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrEntryNotFound, id)
	}

	if e.ID == 0 {
		e.ID = id
	}
	db.emit(EntryDeletedEvent{Entry: e})

	return nil
}

// ClearEntries removes every entry from the list.
// Emits an EntriesClearedEvent with the number of removed rows.
func (db *DB) ClearEntries() error {
	res, err := db.db.Exec("DELETE FROM entries")
	if err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to determine rows affected: %w", err)
	}

	db.emit(EntriesClearedEvent{Count: affected})
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
