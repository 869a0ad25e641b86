// Package store is the persistence layer: sessions, the classification
// version ledger, category set history, few-shot examples, and the LLM
// call log, all in a single SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite handle and provides access to repositories.
type Store struct {
	db *sql.DB
}

// Open creates a Store connected to the SQLite database at dsn. It applies
// recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ledger returns the classification version ledger.
func (s *Store) Ledger() *LedgerRepo {
	return &LedgerRepo{db: s.db}
}

// Sessions returns the session repository.
func (s *Store) Sessions() *SessionRepo {
	return &SessionRepo{db: s.db}
}

// Examples returns the few-shot example repository.
func (s *Store) Examples() *ExampleRepo {
	return &ExampleRepo{db: s.db}
}

// Calls returns the LLM call log.
func (s *Store) Calls() *CallLog {
	return &CallLog{db: s.db}
}

// applyPragmas configures SQLite for single-user interactive use.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending_upload',
		source_filename TEXT NOT NULL DEFAULT '',
		file_type TEXT NOT NULL DEFAULT '',
		sheet_name TEXT NOT NULL DEFAULT '',
		column_name TEXT NOT NULL DEFAULT '',
		total_rows INTEGER NOT NULL DEFAULT 0,
		model TEXT NOT NULL DEFAULT '',
		temperature REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE TABLE IF NOT EXISTS classifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		input_text TEXT NOT NULL,
		row_index INTEGER,
		predicted_category TEXT NOT NULL,
		confidence TEXT,
		version INTEGER NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		temperature REAL NOT NULL DEFAULT 0,
		success INTEGER NOT NULL DEFAULT 1,
		error TEXT,
		latency_ms INTEGER,
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE (session_id, input_text, version)
	)`,

	`CREATE TABLE IF NOT EXISTS category_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		version INTEGER NOT NULL,
		categories TEXT NOT NULL,
		change_kind TEXT NOT NULL,
		feedback TEXT,
		description TEXT,
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE (session_id, version)
	)`,

	`CREATE TABLE IF NOT EXISTS few_shot_examples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT REFERENCES sessions(id) ON DELETE CASCADE,
		example_text TEXT NOT NULL,
		category TEXT NOT NULL,
		reasoning TEXT,
		is_global INTEGER NOT NULL DEFAULT 0,
		display_order INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE TABLE IF NOT EXISTS llm_calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		temperature REAL NOT NULL DEFAULT 0,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL DEFAULT 1,
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_classifications_key
		ON classifications (session_id, input_text, version)`,
	`CREATE INDEX IF NOT EXISTS idx_classifications_session
		ON classifications (session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_category_history_session
		ON category_history (session_id, version)`,
	`CREATE INDEX IF NOT EXISTS idx_few_shot_session
		ON few_shot_examples (session_id, display_order)`,
	`CREATE INDEX IF NOT EXISTS idx_llm_calls_purpose
		ON llm_calls (purpose, created_at)`,
}

func migrate(db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// DefaultDBPath returns the XDG data path for the database, creating the
// directory if needed.
func DefaultDBPath() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".local", "share")
	}
	path := filepath.Join(base, "semclass", "semclass.db")
	return path, EnsureDir(path)
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
