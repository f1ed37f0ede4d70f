package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const createRecordsTable = `CREATE TABLE IF NOT EXISTS records (
	name TEXT PRIMARY KEY,
	blob TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

const upsertRecord = `INSERT INTO records (name, blob, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`

// SQLStore keeps records in a SQLite table.
type SQLStore struct {
	db    *sql.DB
	owned bool
	clock func() time.Time
}

// OpenSQLStore opens (or creates) a SQLite database at path.
func OpenSQLStore(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("settings: open sqlite %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)
	store, err := NewSQLStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.owned = true
	return store, nil
}

// NewSQLStore wraps an existing database handle and ensures the schema exists.
func NewSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("settings: sql db is nil")
	}
	if _, err := db.ExecContext(ctx, createRecordsTable); err != nil {
		return nil, fmt.Errorf("settings: create records table: %w", err)
	}
	return &SQLStore{db: db, clock: time.Now}, nil
}

// Load implements Store.
func (s *SQLStore) Load(ctx context.Context, name string) ([]byte, bool, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM records WHERE name = ?`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("settings: load %s: %w", name, err)
	}
	return []byte(blob), true, nil
}

// SaveAll implements Store. All records are upserted in one transaction.
func (s *SQLStore) SaveAll(ctx context.Context, records map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settings: begin: %w", err)
	}
	now := s.clock().UTC()
	for name, data := range records {
		if _, err := tx.ExecContext(ctx, upsertRecord, name, string(data), now); err != nil {
			tx.Rollback()
			return fmt.Errorf("settings: save %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("settings: commit: %w", err)
	}
	return nil
}

// Close closes the database if the store opened it.
func (s *SQLStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
