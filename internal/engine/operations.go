package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/gridsql/internal/checks"
	"github.com/leapstack-labs/gridsql/internal/metrics"
	"github.com/leapstack-labs/gridsql/internal/mutate"
	"github.com/leapstack-labs/gridsql/internal/query"
	"github.com/leapstack-labs/gridsql/internal/state"
	"github.com/leapstack-labs/gridsql/pkg/core"
)

// ListTables returns the reflected table names sorted.
func (e *Engine) ListTables() []string {
	cat, _, _, _ := e.components()
	return cat.ListTables()
}

// GetColumns returns the columns of table in ordinal order.
func (e *Engine) GetColumns(table string) ([]core.Column, error) {
	cat, _, _, _ := e.components()
	return cat.GetColumns(table)
}

// RunQuery executes one grid read.
func (e *Engine) RunQuery(ctx context.Context, table string, opts query.Options) (*core.QueryResult, error) {
	_, runner, _, _ := e.components()

	start := time.Now()
	res, exec, err := runner.Run(ctx, table, opts)
	e.observe(ctx, state.KindQuery, table, "", start, exec, err)
	return res, err
}

// ApplyEdits applies edits to table one by one and returns every outcome.
func (e *Engine) ApplyEdits(ctx context.Context, table string, edits []mutate.EditDescriptor) ([]mutate.EditResult, error) {
	_, _, mutator, _ := e.components()

	results, err := mutator.ApplyEdits(ctx, table, edits)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		metrics.RecordEdit(string(r.Status))
		if e.store == nil {
			continue
		}
		entry := &state.EditEntry{
			Table:        table,
			RowID:        rowIDString(r.RowID),
			Column:       r.Column,
			Value:        r.Value,
			Status:       string(r.Status),
			RowsAffected: r.RowsAffected,
			Error:        r.Error,
		}
		if err := e.store.RecordEdit(context.WithoutCancel(ctx), entry); err != nil {
			e.logger.Warn("failed to record edit", "table", table, "error", err)
		}
	}
	return results, nil
}

// RunCheck runs the named data-quality check on table.
func (e *Engine) RunCheck(ctx context.Context, name, table string) (*core.QueryResult, error) {
	_, _, _, checker := e.components()

	start := time.Now()
	res, exec, err := checker.Run(ctx, name, table)

	var unknown *core.UnknownCheckError
	if !errors.As(err, &unknown) {
		metrics.RecordCheck(name, err)
	}
	e.observe(ctx, state.KindCheck, table, name, start, exec, err)
	return res, err
}

// CheckDuplicates lists row identifiers that occur more than once.
func (e *Engine) CheckDuplicates(ctx context.Context, table string) (*core.QueryResult, error) {
	return e.RunCheck(ctx, checks.NameDuplicates, table)
}

// CheckInvalidDebitCredit lists rows with a zero debit or credit.
func (e *Engine) CheckInvalidDebitCredit(ctx context.Context, table string) (*core.QueryResult, error) {
	return e.RunCheck(ctx, checks.NameInvalidDebitCredit, table)
}

// CheckCategoryMismatch lists rows whose country does not belong to their region.
func (e *Engine) CheckCategoryMismatch(ctx context.Context, table string) (*core.QueryResult, error) {
	return e.RunCheck(ctx, checks.NameCategoryMismatch, table)
}

// History returns recent reads, newest first.
func (e *Engine) History(ctx context.Context, limit int) ([]state.QueryRecord, error) {
	if e.store == nil {
		return nil, ErrHistoryDisabled
	}
	return e.store.ListQueries(ctx, limit)
}

// EditLog returns recent edits, newest first. An empty table lists all.
func (e *Engine) EditLog(ctx context.Context, table string, limit int) ([]state.EditEntry, error) {
	if e.store == nil {
		return nil, ErrHistoryDisabled
	}
	return e.store.ListEdits(ctx, table, limit)
}

// ErrHistoryDisabled is returned by history reads when no store is configured.
var ErrHistoryDisabled = errors.New("history is disabled: set state_path")

// observe records metrics and history for statements that reached the
// data source. Validation failures never do.
func (e *Engine) observe(ctx context.Context, kind, table, check string, start time.Time, exec *query.Executed, err error) {
	var dsErr *core.DataSourceError
	reached := exec != nil || errors.As(err, &dsErr)
	if !reached {
		return
	}

	rec := &state.QueryRecord{Kind: kind, Table: table, CheckName: check, Duration: time.Since(start)}
	if exec != nil {
		rec.SQL, rec.Args, rec.Rows, rec.Duration = exec.SQL, exec.Args, exec.Rows, exec.Duration
	}
	if err != nil {
		rec.Error = err.Error()
	}
	metrics.RecordQuery(kind, rec.Duration, rec.Rows, err)

	if e.store == nil {
		return
	}
	if err := e.store.RecordQuery(context.WithoutCancel(ctx), rec); err != nil {
		e.logger.Warn("failed to record query", "table", table, "error", err)
	}
}

func rowIDString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
