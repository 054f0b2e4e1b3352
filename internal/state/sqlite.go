package state

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotOpened is returned when the store is used before Open.
var ErrNotOpened = errors.New("database not opened")

// DefaultListLimit caps list calls that pass a non-positive limit.
const DefaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite history store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens the database at path and applies migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer; server handlers record concurrently.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the path the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// --- Query history ---

// RecordQuery stores an executed read. ID and CreatedAt are filled when empty.
func (s *SQLiteStore) RecordQuery(ctx context.Context, rec *QueryRecord) error {
	if s.db == nil {
		return ErrNotOpened
	}
	if rec.ID == "" {
		rec.ID = generateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	args, err := json.Marshal(nonNilArgs(rec.Args))
	if err != nil {
		return fmt.Errorf("failed to encode query args: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_history
			(id, kind, table_name, check_name, sql_text, args_json, row_count, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Kind, rec.Table, rec.CheckName, rec.SQL, string(args),
		rec.Rows, rec.Duration.Milliseconds(), rec.Error, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record query: %w", err)
	}
	return nil
}

// ListQueries returns the most recent reads, newest first.
func (s *SQLiteStore) ListQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, table_name, check_name, sql_text, args_json, row_count, duration_ms, error, created_at
		FROM query_history
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []QueryRecord
	for rows.Next() {
		var (
			rec      QueryRecord
			argsJSON string
			millis   int64
		)
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Table, &rec.CheckName, &rec.SQL,
			&argsJSON, &rec.Rows, &millis, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		if err := json.Unmarshal([]byte(argsJSON), &rec.Args); err != nil {
			return nil, fmt.Errorf("failed to decode args for %s: %w", rec.ID, err)
		}
		rec.Duration = time.Duration(millis) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// --- Edit log ---

// RecordEdit stores one edit outcome. ID and CreatedAt are filled when empty.
func (s *SQLiteStore) RecordEdit(ctx context.Context, entry *EditEntry) error {
	if s.db == nil {
		return ErrNotOpened
	}
	if entry.ID == "" {
		entry.ID = generateID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	value, err := json.Marshal(entry.Value)
	if err != nil {
		return fmt.Errorf("failed to encode edit value: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO edit_log
			(id, table_name, row_id, column_name, value_json, status, rows_affected, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Table, entry.RowID, entry.Column, string(value),
		entry.Status, entry.RowsAffected, entry.Error, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record edit: %w", err)
	}
	return nil
}

// ListEdits returns the most recent edits, newest first. An empty table
// lists edits across all tables.
func (s *SQLiteStore) ListEdits(ctx context.Context, table string, limit int) ([]EditEntry, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, table_name, row_id, column_name, value_json, status, rows_affected, error, created_at
		FROM edit_log
		WHERE ? = '' OR table_name = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, table, table, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []EditEntry
	for rows.Next() {
		var (
			e         EditEntry
			valueJSON string
		)
		if err := rows.Scan(&e.ID, &e.Table, &e.RowID, &e.Column, &valueJSON,
			&e.Status, &e.RowsAffected, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan edit: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(valueJSON)))
		dec.UseNumber()
		if err := dec.Decode(&e.Value); err != nil {
			return nil, fmt.Errorf("failed to decode value for %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nonNilArgs(args []any) []any {
	if args == nil {
		return []any{}
	}
	return args
}

var _ Store = (*SQLiteStore)(nil)
