package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const defaultDBName = "formportal.db"

type Config struct {
	// Dir is the directory holding the database file. Defaults to the
	// current directory.
	Dir string
}

func dbPath(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, defaultDBName)
}

// Open opens the SQLite database with foreign keys on and applies the
// schema bootstrap.
func Open(cfg Config) (*sql.DB, error) {
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("db: create data dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)", dbPath(cfg.Dir))
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Path returns the database path for the data directory.
func Path(dir string) string {
	return dbPath(dir)
}

const schema = `
CREATE TABLE IF NOT EXISTS applications (
	id           TEXT PRIMARY KEY,
	form_id      TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	answers      TEXT NOT NULL DEFAULT '{}',
	submitted_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applications_form_id ON applications(form_id);
CREATE INDEX IF NOT EXISTS idx_applications_submitted_at ON applications(submitted_at);
`

// Migrate applies the schema bootstrap. Statements are idempotent so it is
// safe to call on every startup.
func Migrate(conn *sql.DB) error {
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
