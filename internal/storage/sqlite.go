package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"ResearchBoard/internal/geom"
	"ResearchBoard/internal/state"
	"ResearchBoard/internal/viewport"
)

// SQLiteStore keeps the board in a local SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := InitializeDatabase(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads every item and the view config. A missing config row yields the default view.
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	snap := Empty()

	rows, err := s.db.QueryContext(ctx, "SELECT id, data FROM items ORDER BY z ASC, id ASC")
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			return Snapshot{}, fmt.Errorf("failed to scan item: %w", err)
		}
		var it state.Item
		if err := json.Unmarshal([]byte(data), &it); err != nil {
			return Snapshot{}, fmt.Errorf("failed to decode item %d: %w", id, err)
		}
		it.ID = id
		snap.Items = append(snap.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to iterate items: %w", err)
	}

	var panX, panY, zoom float64
	err = s.db.QueryRowContext(ctx, "SELECT pan_x, pan_y, zoom FROM board_config WHERE id = 1").Scan(&panX, &panY, &zoom)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return Snapshot{}, fmt.Errorf("failed to read board config: %w", err)
	default:
		snap.View = viewport.View{Pan: geom.Pt(panX, panY), Zoom: zoom}
	}

	return snap, nil
}

// Save clears and rewrites both collections in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO items (id, kind, z, data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range snap.Items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("failed to encode item %d: %w", it.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, it.ID, string(it.Kind), it.Z, string(data)); err != nil {
			return fmt.Errorf("failed to insert item %d: %w", it.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM board_config"); err != nil {
		return fmt.Errorf("failed to clear board config: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO board_config (id, pan_x, pan_y, zoom) VALUES (1, ?, ?, ?)",
		snap.View.Pan.X, snap.View.Pan.Y, snap.View.Zoom,
	); err != nil {
		return fmt.Errorf("failed to write board config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}
