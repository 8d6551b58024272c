package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// archiveMigration is one change to the archive layout made after the
// tables in schema.sql were first shipped.
type archiveMigration struct {
	version int
	desc    string
	stmt    string
}

// archiveMigrations are applied in order to archives whose user_version is
// below their version. Archives written before any migration existed carry
// user_version 0 and the bare schema.sql tables.
var archiveMigrations = []archiveMigration{
	{
		version: 1,
		desc:    "index runs by report digest for RunsWithDigest",
		stmt:    `CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest)`,
	},
}

// schemaVersion is the user_version of an up-to-date archive.
func schemaVersion() int {
	return archiveMigrations[len(archiveMigrations)-1].version
}

// Store is a run archive backed by a single SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens the archive at path, creating the file and its tables if
// needed, and brings older archives up to the current layout.
//
// path may be ":memory:" for a throwaway archive.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", archiveDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// One connection: WriteRun's transaction and any listing share it, and
	// a :memory: archive lives only as long as that connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to archive %s: %w", path, err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare archive %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// archiveDSN attaches the connection settings to path. The driver applies
// them to every connection it opens.
func archiveDSN(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "on")
	return path + "?" + params.Encode()
}

// Close closes the archive.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// migrate creates missing tables and applies pending migrations in one
// transaction, so an archive is never left half-upgraded.
func migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	var version int
	if err := tx.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version > schemaVersion() {
		return fmt.Errorf("archive version %d is newer than supported version %d", version, schemaVersion())
	}

	for _, m := range archiveMigrations {
		if m.version <= version {
			continue
		}
		if _, err := tx.Exec(m.stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.desc, err)
		}
	}

	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion())); err != nil {
		return fmt.Errorf("write user_version: %w", err)
	}

	return tx.Commit()
}
