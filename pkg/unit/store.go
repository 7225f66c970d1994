package unit

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists unit definitions to a SQLite database at teardown so
// an offline trace reader can resolve ledger names long after the
// capture process exits. It replaces the instrumented-module dump the
// host would otherwise have to keep alongside the logs.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS units (
	name        TEXT PRIMARY KEY,
	guest_pc    INTEGER NOT NULL,
	guest_len   INTEGER NOT NULL,
	compile_seq INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// OpenStore opens (or creates) the unit database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unit: open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("unit: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Persist writes every unit plus capture session metadata in one
// transaction. Called once, at teardown.
func (s *Store) Persist(sessionID string, units []ExecutionUnit) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("unit: begin persist: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO units (name, guest_pc, guest_len, compile_seq) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("unit: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, u := range units {
		if _, err := stmt.Exec(u.Name, int64(u.GuestPC), int64(u.GuestLen), u.CompileSeq); err != nil {
			return fmt.Errorf("unit: insert %q: %w", u.Name, err)
		}
	}

	metaStmt := `INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`
	if _, err := tx.Exec(metaStmt, "session_id", sessionID); err != nil {
		return fmt.Errorf("unit: write session id: %w", err)
	}
	if _, err := tx.Exec(metaStmt, "created_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("unit: write timestamp: %w", err)
	}

	return tx.Commit()
}

// Lookup returns the stored unit with the given name.
func (s *Store) Lookup(name string) (ExecutionUnit, error) {
	var u ExecutionUnit
	var pc, length int64
	row := s.db.QueryRow(`SELECT name, guest_pc, guest_len, compile_seq FROM units WHERE name = ?`, name)
	if err := row.Scan(&u.Name, &pc, &length, &u.CompileSeq); err != nil {
		if err == sql.ErrNoRows {
			return ExecutionUnit{}, fmt.Errorf("unit: %q not found", name)
		}
		return ExecutionUnit{}, fmt.Errorf("unit: lookup %q: %w", name, err)
	}
	u.GuestPC = uint64(pc)
	u.GuestLen = uint32(length)
	return u, nil
}

// All returns every stored unit in compilation order.
func (s *Store) All() ([]ExecutionUnit, error) {
	rows, err := s.db.Query(`SELECT name, guest_pc, guest_len, compile_seq FROM units ORDER BY compile_seq`)
	if err != nil {
		return nil, fmt.Errorf("unit: list: %w", err)
	}
	defer rows.Close()

	var units []ExecutionUnit
	for rows.Next() {
		var u ExecutionUnit
		var pc, length int64
		if err := rows.Scan(&u.Name, &pc, &length, &u.CompileSeq); err != nil {
			return nil, fmt.Errorf("unit: scan: %w", err)
		}
		u.GuestPC = uint64(pc)
		u.GuestLen = uint32(length)
		units = append(units, u)
	}
	return units, rows.Err()
}

// SessionID returns the capture session UUID recorded at persist time.
func (s *Store) SessionID() (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'session_id'`).Scan(&v)
	if err != nil {
		return "", fmt.Errorf("unit: read session id: %w", err)
	}
	return v, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
