package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"picture-frame/internal/logging"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// SQLiteBackend stores one row per (path, key) with the value JSON-encoded.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// The store is the only writer.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS metadata (
		path TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (path, key)
	);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Metadata database initialized at %s", path)
	return &SQLiteBackend{db: db, path: path}, nil
}

// Load reads every row back into records.
func (b *SQLiteBackend) Load() (map[string]Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	rows, err := b.db.QueryContext(ctx, `SELECT path, key, value FROM metadata`)
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("failed to close rows: %v", err)
		}
	}()

	records := make(map[string]Record)
	for rows.Next() {
		var path, key, raw string
		if err := rows.Scan(&path, &key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			logging.Warn("Skipping undecodable metadata value for %s/%s: %v", path, key, err)
			continue
		}

		rec, ok := records[path]
		if !ok {
			rec = make(Record)
			records[path] = rec
		}
		rec[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metadata rows: %w", err)
	}
	return records, nil
}

// Save replaces all rows with records in a single transaction.
func (b *SQLiteBackend) Save(records map[string]Record) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("failed to rollback metadata transaction: %v", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM metadata`); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO metadata (path, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			logging.Warn("failed to close statement: %v", closeErr)
		}
	}()

	for path, rec := range records {
		for key, value := range rec {
			raw, marshalErr := json.Marshal(value)
			if marshalErr != nil {
				err = fmt.Errorf("failed to encode %s/%s: %w", path, key, marshalErr)
				return err
			}
			if _, err = stmt.ExecContext(ctx, path, key, string(raw)); err != nil {
				return fmt.Errorf("failed to insert metadata: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metadata: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
