// Package state keeps a local audit trail of executed reads and applied
// edits in SQLite. It is a log only: results are never served from it.
package state

import (
	"context"
	"time"
)

// Query kinds recorded in the history.
const (
	KindQuery = "query"
	KindCheck = "check"
)

// QueryRecord is one executed read.
type QueryRecord struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Table     string        `json:"table"`
	CheckName string        `json:"check,omitempty"`
	SQL       string        `json:"sql"`
	Args      []any         `json:"args,omitempty"`
	Rows      int           `json:"rows"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// EditEntry is one edit outcome.
type EditEntry struct {
	ID           string    `json:"id"`
	Table        string    `json:"table"`
	RowID        string    `json:"row_id"`
	Column       string    `json:"column"`
	Value        any       `json:"value"`
	Status       string    `json:"status"`
	RowsAffected int64     `json:"rows_affected"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store records and lists history.
type Store interface {
	RecordQuery(ctx context.Context, rec *QueryRecord) error
	RecordEdit(ctx context.Context, entry *EditEntry) error
	ListQueries(ctx context.Context, limit int) ([]QueryRecord, error)
	ListEdits(ctx context.Context, table string, limit int) ([]EditEntry, error)
	Close() error
}
