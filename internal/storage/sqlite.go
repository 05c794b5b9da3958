package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"newspipe/migrations"
)

// InitError reports a failure to open or migrate the dedup database. It is
// fatal: the pipeline must not start a run without a working seen store.
type InitError struct {
	Path string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("open seen store %s: %v", e.Path, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// SQLite implements SeenStore backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// Open opens a SQLite database at dsn and runs pending migrations.
func Open(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &InitError{Path: dsn, Err: err}
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, &InitError{Path: dsn, Err: fmt.Errorf("set WAL mode: %w", err)}
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, &InitError{Path: dsn, Err: err}
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadSeenTitles returns the titles of all fully processed articles.
// Rows with status=false are attempts that failed; they are not part of the
// seen set, so failed items are retried on the next run.
func (s *SQLite) LoadSeenTitles(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM news WHERE status = 1`)
	if err != nil {
		return nil, fmt.Errorf("query seen titles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[string]struct{})
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		seen[title] = struct{}{}
	}
	return seen, rows.Err()
}

// Record inserts a processing outcome for a title. INSERT OR IGNORE makes
// duplicate recording idempotent: the first row for a title wins and later
// attempts leave it untouched.
func (s *SQLite) Record(ctx context.Context, title string, status bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO news (title, status) VALUES (?, ?)`,
		title, boolToInt(status),
	)
	if err != nil {
		return fmt.Errorf("record title: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure the SeenStore interface is satisfied.
var _ SeenStore = (*SQLite)(nil)
