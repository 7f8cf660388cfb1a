package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB connection with schema management.
type DB struct {
	*sql.DB
}

// migrations contains all schema migrations in order. Versions already
// applied (tracked in schema_migrations) are skipped.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		url TEXT,
		enabled BOOLEAN DEFAULT true,
		is_builtin BOOLEAN DEFAULT false,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS opportunities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id INTEGER REFERENCES sources(id),
		title TEXT NOT NULL,
		description TEXT,
		source_type TEXT NOT NULL,
		source_url TEXT NOT NULL,
		source_id_external TEXT NOT NULL,
		score INTEGER DEFAULT 0,
		signals TEXT DEFAULT '[]',
		detected_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_type, source_id_external)
	);`,

	`CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		period_start DATETIME NOT NULL,
		period_end DATETIME NOT NULL,
		opportunity_count INTEGER DEFAULT 0,
		content_human TEXT,
		content_prompt TEXT,
		summary TEXT,
		ai_analysis TEXT,
		generated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE INDEX IF NOT EXISTS idx_opportunities_detected_at
		ON opportunities(detected_at);`,
}

// Open creates the database connection, enables WAL mode, and runs all
// pending migrations.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	wrapper := &DB{db}
	if err := wrapper.migrate(); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return wrapper, nil
}

func (db *DB) migrate() error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return err
	}

	var current int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return err
	}

	for i, migration := range migrations {
		version := i + 1
		if version <= current {
			continue
		}

		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d: %w", version, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("record migration %d: %w", version, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}
