// Package state persists the global plugin activation state across restarts.
package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS plugin_state (
	identifier TEXT PRIMARY KEY,
	enabled    INTEGER NOT NULL DEFAULT 0,
	load_order INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL
);
`

// Entry is the persisted activation record for one plugin.
type Entry struct {
	Enabled bool
	Order   int
}

// ActivationState maps plugin identifier to its persisted entry.
type ActivationState map[string]Entry

// Store persists the ActivationState. Absence of prior state loads as an
// empty map: every discovered plugin defaults to disabled.
type Store interface {
	// Load reads the full persisted state.
	Load() (ActivationState, error)

	// Save replaces the persisted state atomically. On failure the prior
	// persisted state is left untouched.
	Save(st ActivationState) error

	// Update persists the entry for a single plugin. Callers must serialize
	// writers; the store itself only guarantees the write is not torn.
	Update(identifier string, enabled bool, order int) error

	Close() error
}

// SQLiteStore persists activation state in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the plugin_state table exists. The caller is responsible for calling Close.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Load reads every persisted entry.
func (s *SQLiteStore) Load() (ActivationState, error) {
	rows, err := s.db.Query(`SELECT identifier, enabled, load_order FROM plugin_state`)
	if err != nil {
		return nil, fmt.Errorf("load plugin state: %w", err)
	}
	defer rows.Close()

	st := make(ActivationState)
	for rows.Next() {
		var id string
		var enabled, order int
		if err := rows.Scan(&id, &enabled, &order); err != nil {
			return nil, fmt.Errorf("scan plugin state: %w", err)
		}
		st[id] = Entry{Enabled: enabled != 0, Order: order}
	}
	return st, rows.Err()
}

// Save replaces the full persisted state in one transaction.
func (s *SQLiteStore) Save(st ActivationState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM plugin_state`); err != nil {
		return fmt.Errorf("clear plugin state: %w", err)
	}
	now := time.Now().UTC()
	for id, e := range st {
		if _, err := tx.Exec(
			`INSERT INTO plugin_state (identifier, enabled, load_order, updated_at) VALUES (?,?,?,?)`,
			id, boolInt(e.Enabled), e.Order, now,
		); err != nil {
			return fmt.Errorf("save plugin %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Update upserts a single plugin's entry.
func (s *SQLiteStore) Update(identifier string, enabled bool, order int) error {
	_, err := s.db.Exec(`
		INSERT INTO plugin_state (identifier, enabled, load_order, updated_at)
		VALUES (?,?,?,?)
		ON CONFLICT(identifier) DO UPDATE SET
			enabled=excluded.enabled,
			load_order=excluded.load_order,
			updated_at=excluded.updated_at`,
		identifier, boolInt(enabled), order, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update plugin %s: %w", identifier, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
