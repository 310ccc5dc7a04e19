package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/plinth-cli/plinth/internal/history/migrations"
)

// Store persists history entries in SQLite beyond the lifetime of a single
// shell session.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the history database at path and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	if err = migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// NewWithDB creates a Store from an existing database connection. Useful for
// testing with pre-configured databases.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append persists a single entry.
func (s *Store) Append(e Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO history_entries (id, session_id, raw_text, timestamp, exit_status)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Raw, e.Timestamp.Format(time.RFC3339Nano), e.ExitStatus,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// BulkAppend persists entries inside one transaction.
func (s *Store) BulkAppend(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO history_entries (id, session_id, raw_text, timestamp, exit_status)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.ID, e.SessionID, e.Raw,
			e.Timestamp.Format(time.RFC3339Nano), e.ExitStatus); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert history entry: %w", err)
		}
	}
	return tx.Commit()
}

// LoadAll returns every persisted entry, oldest first.
func (s *Store) LoadAll() ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, raw_text, timestamp, exit_status
		 FROM history_entries ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Recent returns the n most recent entries, oldest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, raw_text, timestamp, exit_status
		 FROM history_entries ORDER BY timestamp DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent history: %w", err)
	}
	defer rows.Close()
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Search returns persisted entries whose raw text contains the substring,
// oldest first.
func (s *Store) Search(substr string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, raw_text, timestamp, exit_status
		 FROM history_entries
		 WHERE raw_text LIKE '%' || ? || '%'
		 ORDER BY timestamp ASC`, substr)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Clear deletes every persisted entry and returns the number removed.
func (s *Store) Clear() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM history_entries`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Raw, &ts, &e.ExitStatus); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		e.Timestamp = parsed
		out = append(out, e)
	}
	return out, rows.Err()
}
