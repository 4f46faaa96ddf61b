package db

import (
	"database/sql"
	"embed"
	"fmt"
	"log"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is the SQLite-backed store for the workshop list, settings and download history.
type DB struct {
	db             *sql.DB
	eventListeners map[EventKind][]EventListener
}

// NewSQLiteDB opens (or creates) the database at path. Call Migrate before use.
func NewSQLiteDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &DB{
		db:             db,
		eventListeners: make(map[EventKind][]EventListener),
	}, nil
}

// Migrate applies every embedded migration that is not yet recorded in
// schema_migrations, in file name order. Each migration runs in its own transaction.
func (db *DB) Migrate() error {
	if _, err := db.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema migrations table: %w", err)
	}

	versions, err := migrationVersions()
	if err != nil {
		return err
	}

	applied := 0
	for _, version := range versions {
		var done bool
		if err := db.db.QueryRow(
			"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = ?)", version,
		).Scan(&done); err != nil {
			return fmt.Errorf("failed to look up migration %s: %w", version, err)
		}
		if done {
			continue
		}
		if err := db.applyMigration(version); err != nil {
			return err
		}
		applied++
	}

	if applied > 0 {
		log.Printf("Applied %d migration(s), schema at %s", applied, versions[len(versions)-1])
	}
	return nil
}

func migrationVersions() ([]string, error) {
	files, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var versions []string
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(name, ".sql"))
	}
	sort.Strings(versions)
	return versions, nil
}

func (db *DB) applyMigration(version string) error {
	script, err := migrationsFS.ReadFile("migrations/" + version + ".sql")
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", version, err)
	}

	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(script)); err != nil {
		return fmt.Errorf("failed to apply migration %s: %w", version, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", version, err)
	}
	log.Printf("Migration %s applied", version)
	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}
