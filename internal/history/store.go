package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const defaultRecentLimit = 20

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one journaled transition.
type Entry struct {
	ID            int64     `json:"id"`
	RunID         string    `json:"runId"`
	Signal        string    `json:"signal"`
	Direction     string    `json:"direction"`
	Message       string    `json:"message"`
	Notified      bool      `json:"notified"`
	Dispatcher    string    `json:"dispatcher"`
	DispatchError string    `json:"dispatchError,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Store persists transitions in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the journal database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts entries in a single transaction.
func (s *Store) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transitions (
            run_id, signal, direction, message, notified, dispatcher, dispatch_error, occurred_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		occurred := entry.OccurredAt
		if occurred.IsZero() {
			occurred = time.Now()
		}
		if _, err := stmt.ExecContext(
			ctx,
			entry.RunID,
			entry.Signal,
			entry.Direction,
			entry.Message,
			boolToInt(entry.Notified),
			entry.Dispatcher,
			nullableString(entry.DispatchError),
			occurred.UTC().Format(timestampLayout),
		); err != nil {
			return fmt.Errorf("insert transition: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transitions: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
            id, run_id, signal, direction, message, notified, dispatcher, dispatch_error, occurred_at
        FROM transitions ORDER BY occurred_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry         Entry
			notified      int
			dispatchError sql.NullString
			occurred      string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&entry.Signal,
			&entry.Direction,
			&entry.Message,
			&notified,
			&entry.Dispatcher,
			&dispatchError,
			&occurred,
		); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		entry.Notified = notified != 0
		entry.DispatchError = dispatchError.String
		if entry.OccurredAt, err = time.Parse(time.RFC3339Nano, occurred); err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", occurred, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return entries, nil
}

// Prune deletes entries that occurred before cutoff and reports how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transitions WHERE occurred_at < ?", cutoff.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("prune transitions: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
