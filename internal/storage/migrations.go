package storage

import (
	"database/sql"
	"fmt"
)

// MigrationVersion tracks the current database schema version.
const MigrationVersion = 1

// InitializeDatabase creates the board schema and records applied migrations.
func InitializeDatabase(db *sql.DB) error {
	migrationsTable := `
	CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL UNIQUE,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.Exec(migrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to check migration version: %w", err)
	}

	if currentVersion < 1 {
		if err := applyMigration1(db); err != nil {
			return fmt.Errorf("failed to apply migration 1: %w", err)
		}
	}

	return nil
}

// applyMigration1 creates the item collection and the view config singleton.
func applyMigration1(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE items (
			id INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			z INTEGER NOT NULL,
			data TEXT NOT NULL
		);`,
		`CREATE INDEX idx_items_z ON items(z);`,
		`CREATE TABLE board_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			pan_x REAL NOT NULL,
			pan_y REAL NOT NULL,
			zoom REAL NOT NULL
		);`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (?)", 1); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}
