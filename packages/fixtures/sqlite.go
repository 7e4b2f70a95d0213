package fixtures

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS fixtures (
	collection TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	PRIMARY KEY (collection, key)
)`

// SQLiteStore keeps fixtures in a single SQLite table.
type SQLiteStore struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewSQLiteStore opens (and creates if needed) the database at path. Both
// plain paths and sqlite:// or sqlite: prefixed ones are accepted.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = trimSQLitePrefix(path)

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create fixture directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create fixtures table: %w", err)
	}

	return &SQLiteStore{db: db, queryTimeout: 30 * time.Second}, nil
}

func trimSQLitePrefix(path string) string {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "sqlite://") {
		return strings.TrimPrefix(path, "sqlite://")
	}
	return strings.TrimPrefix(path, "sqlite:")
}

// Save writes every collection in r inside one transaction.
func (s *SQLiteStore) Save(r *Registry) error {
	entries, err := snapshot(r)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO fixtures (collection, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.collection, e.key, e.value); err != nil {
			return fmt.Errorf("save %s[%q]: %w", e.collection, e.key, err)
		}
	}
	return tx.Commit()
}

// Load sets every stored fixture into r.
func (s *SQLiteStore) Load(r *Registry) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT collection, key, value FROM fixtures ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.collection, &e.key, &e.value); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if err := restore(r, e); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
