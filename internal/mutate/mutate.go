// Package mutate applies single-cell grid edits as one UPDATE per edit.
//
// Edits are best effort and independent: a failure on one edit neither rolls
// back earlier edits nor stops later ones. Every outcome is reported in the
// returned result list.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/gridsql/internal/catalog"
	"github.com/leapstack-labs/gridsql/internal/sqlbuild"
	"github.com/leapstack-labs/gridsql/pkg/core"
	"github.com/leapstack-labs/gridsql/pkg/dialect"
)

// DefaultRowIDColumn identifies the row an edit applies to.
const DefaultRowIDColumn = "transaction_id"

// Status is the outcome of one edit.
type Status string

// Edit outcomes.
const (
	StatusApplied Status = "applied"
	StatusNoMatch Status = "no_match"
	StatusFailed  Status = "failed"
)

// EditDescriptor is one cell edit in grid wire shape: the full row as it was
// displayed, the edited column id and the new value.
type EditDescriptor struct {
	Data  map[string]any `json:"data"`
	ColID string         `json:"colId"`
	Value any            `json:"value"`
}

// EditRecord is a decoded edit.
type EditRecord struct {
	Table  string
	RowID  any
	Column string
	Value  any
}

// EditResult reports what happened to one edit.
type EditResult struct {
	Index        int    `json:"index"`
	RowID        any    `json:"row_id,omitempty"`
	Column       string `json:"column,omitempty"`
	Value        any    `json:"value,omitempty"`
	Status       Status `json:"status"`
	RowsAffected int64  `json:"rows_affected"`
	Error        string `json:"error,omitempty"`
}

// Execer runs a parameterized statement and reports affected rows; a
// negative count means the driver could not tell.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Dialect() *dialect.Dialect
}

// Config configures a Mutator.
type Config struct {
	RowIDColumn string
	Logger      *slog.Logger
}

// Mutator translates edits into UPDATE statements.
type Mutator struct {
	catalog *catalog.Catalog
	db      Execer
	rowID   string
	logger  *slog.Logger
}

// New creates a Mutator.
func New(cat *catalog.Catalog, db Execer, cfg Config) *Mutator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rowID := cfg.RowIDColumn
	if rowID == "" {
		rowID = DefaultRowIDColumn
	}
	return &Mutator{catalog: cat, db: db, rowID: rowID, logger: logger}
}

// RowIDColumn returns the configured row identifier column.
func (m *Mutator) RowIDColumn() string {
	return m.rowID
}

// ApplyEdits applies each edit independently. It returns an error only when
// no edit can be attempted: an unknown table or a table without the row
// identifier column.
func (m *Mutator) ApplyEdits(ctx context.Context, table string, edits []EditDescriptor) ([]EditResult, error) {
	t, err := m.catalog.Table(table)
	if err != nil {
		return nil, err
	}
	if _, err := t.RequireColumn(m.rowID); err != nil {
		return nil, err
	}

	results := make([]EditResult, 0, len(edits))
	for i, e := range edits {
		res := m.applyOne(ctx, t, i, e)
		if res.Status == StatusFailed {
			m.logger.Warn("edit failed",
				slog.String("table", t.Name),
				slog.Int("index", i),
				slog.String("column", res.Column),
				slog.Any("row_id", res.RowID),
				slog.String("error", res.Error))
		} else {
			m.logger.Info("edit processed",
				slog.String("table", t.Name),
				slog.String("column", res.Column),
				slog.Any("row_id", res.RowID),
				slog.String("status", string(res.Status)))
		}
		results = append(results, res)
	}
	return results, nil
}

func (m *Mutator) applyOne(ctx context.Context, t *catalog.Table, index int, e EditDescriptor) EditResult {
	res := EditResult{Index: index, Column: e.ColID}

	rec, err := m.Decode(t, e)
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		return res
	}
	res.RowID = rec.RowID
	res.Value = rec.Value

	upd := &sqlbuild.Update{
		Table:  sqlbuild.Table{Schema: t.Schema, Name: t.Name},
		Column: rec.Column,
		Value:  rec.Value,
		Where:  []sqlbuild.Predicate{sqlbuild.Eq(sqlbuild.Col(m.rowID), sqlbuild.Val(rec.RowID))},
	}
	sqlStr, args, err := upd.Render(m.db.Dialect())
	if err != nil {
		res.Status = StatusFailed
		res.Error = fmt.Sprintf("render update: %v", err)
		return res
	}

	n, err := m.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		res.Status = StatusFailed
		res.Error = core.WrapDataSource("update", err).Error()
		return res
	}

	res.RowsAffected = n
	if n == 0 {
		res.Status = StatusNoMatch
	} else {
		res.Status = StatusApplied
	}
	return res
}

// ErrMissingRowID is returned when an edit carries no row identifier value.
var ErrMissingRowID = errors.New("edit is missing the row identifier")

// Decode validates one descriptor against t.
func (m *Mutator) Decode(t *catalog.Table, e EditDescriptor) (EditRecord, error) {
	if e.ColID == "" {
		return EditRecord{}, errors.New("edit is missing colId")
	}
	col, err := t.RequireColumn(e.ColID)
	if err != nil {
		return EditRecord{}, err
	}

	id, ok := e.Data[m.rowID]
	if !ok || id == nil {
		return EditRecord{}, fmt.Errorf("%w %q", ErrMissingRowID, m.rowID)
	}

	return EditRecord{
		Table:  t.Name,
		RowID:  core.NormalizeValue(id),
		Column: col.Name,
		Value:  core.NormalizeValue(e.Value),
	}, nil
}
